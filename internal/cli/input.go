package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// ErrEmptyInput is returned when a required prompt is left blank.
var ErrEmptyInput = errors.New("value is required")

// prompt prints label and reads one trimmed line. A partial line before EOF
// is returned as is.
func prompt(reader *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptRequired(reader *bufio.Reader, w io.Writer, label string) (string, error) {
	v, err := prompt(reader, w, label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s: %w", label, ErrEmptyInput)
	}
	return v, nil
}

func promptID(reader *bufio.Reader, w io.Writer, label string) (uint, error) {
	v, err := promptRequired(reader, w, label)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s: %q is not a valid id", label, v)
	}
	return uint(id), nil
}

// promptPassword reads a password without echo.
func promptPassword(w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
