package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrEmptyInput is returned when a required prompt gets a blank answer.
var ErrEmptyInput = errors.New("empty input")

// Terminal access is swapped out in tests.
var (
	readPassword    = term.ReadPassword
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// readLine reads one line and trims it. A final line without a newline is
// still returned; EOF is only reported when nothing was read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptLine asks for a required value, shown as "label: ".
func promptLine(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprintf(w, "%s: ", label)
	v, err := readLine(r)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), ErrEmptyInput)
	}
	return v, nil
}

// promptPassword reads the password without echo when stdin is a terminal.
// Piped input is read as a plain line so the client can be scripted. The
// caller wipes the returned slice.
func promptPassword(r *bufio.Reader, w io.Writer) ([]byte, error) {
	if !stdinIsTerminal() {
		pw, err := promptLine(r, w, "Password")
		if err != nil {
			return nil, err
		}
		return []byte(pw), nil
	}

	fmt.Fprint(w, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, fmt.Errorf("password: %w", ErrEmptyInput)
	}
	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
