package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/netx"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// mapHTTPError translates a server answer into the common taxonomy. The
// server's message is kept for display.
func mapHTTPError(err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var kind error
	switch {
	case se.Code == http.StatusBadRequest:
		kind = common.ErrValidation
	case se.Code == http.StatusRequestEntityTooLarge:
		kind = common.ErrPayloadTooLarge
	case se.Code == http.StatusForbidden:
		kind = common.ErrAuthDenied
	case se.Code == http.StatusNotFound:
		kind = common.ErrNotFound
	case se.Code >= http.StatusInternalServerError:
		kind = ErrUnavailable
	default:
		return err
	}
	return fmt.Errorf("%w: %s", kind, se.Message)
}
