package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText reads a single line from reader. If EOF occurs after some
// input was read, the partial line is returned.
func GetSimpleText(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret returns args[0] when given. Otherwise it prompts on the
// terminal without echo, or reads one line when stdin is piped.
func (a *App) readSecret(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	fd := int(a.stdin.Fd())
	if !isTerminal(fd) {
		return GetSimpleText(a.in)
	}

	if _, err := fmt.Fprint(a.errOut, "Enter secret: "); err != nil {
		return "", err
	}
	b, err := readPassword(fd)
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
