package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

const (
	msgInvalidProof  = "Invalid proof"
	msgNotFound      = "File not found"
	msgVerifierError = "Server error during proof verification"
	msgInternal      = "Internal server error"
)

// statusFor maps an error to the response status and the message shown to
// the caller. Validation messages are built by this module and safe to
// echo; anything else gets a fixed text.
func (s *Server) statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, s.tooLargeMessage()
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrAuthDenied):
		return http.StatusForbidden, msgInvalidProof
	case errors.Is(err, common.ErrNotFound):
		if s.opts.ConcealMissing {
			return http.StatusForbidden, msgInvalidProof
		}
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrVerifierUnavailable):
		return http.StatusInternalServerError, msgVerifierError
	}
	return http.StatusInternalServerError, msgInternal
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("Payload too large. Please ensure your encrypted upload is under %d MB.", s.opts.MaxContentLengthMB)
}

// writeError answers with the mapped status. Server-side failures are
// logged with their cause, which never reaches the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := s.statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log(r).Error(r.Context(), "request failed", "status", code, "error", err.Error())
	}
	http.Error(w, msg, code)
}
