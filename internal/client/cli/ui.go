package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/common"
)

// startSpinner shows message on w until the returned func is called. Nothing
// is drawn when w is not a terminal.
func startSpinner(w io.Writer, message string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func (a *App) fail(err error) {
	fmt.Fprintln(a.errOut, color.RedString("✗")+" "+describe(err))
}

// describe turns an error into a line for a human. Server messages are kept
// because they are written for end users.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthDenied):
		return "Access denied: the secret does not match any stored object"
	case errors.Is(err, common.ErrNotFound):
		return "Nothing stored under this secret (it may have expired or been downloaded already)"
	case errors.Is(err, common.ErrPayloadTooLarge):
		return err.Error()
	case errors.Is(err, common.ErrAuthenticationFailure):
		return "The payload could not be decrypted with this secret"
	case errors.Is(err, client.ErrUnauthorized):
		return "The ops listener refused the admin token"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable: " + err.Error()
	}
	return err.Error()
}
