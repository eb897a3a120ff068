// Package terminal holds the interactive input helpers shared by commands.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when input is needed but stdin is not a terminal.
var ErrNoTerminal = errors.New("no terminal available for interactive input")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether prompts may be shown.
func Interactive(nonInteractive bool) bool {
	return !nonInteractive && IsTerminal(os.Stdin)
}

// Prompt asks for a line of visible input.
func Prompt(label string) (string, error) {
	if !IsTerminal(os.Stdin) {
		return "", ErrNoTerminal
	}
	value, err := pterm.DefaultInteractiveTextInput.Show(label)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(value), nil
}

// ReadPassword prompts on stderr and reads a password with echo disabled.
func ReadPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

// Password reads a password from in when fromStdin is set. Otherwise it
// prompts, asking twice when confirm is set.
func Password(in io.Reader, fromStdin, interactive, confirm bool) (string, error) {
	if fromStdin {
		return ReadLine(in)
	}
	if !interactive {
		return "", errors.New("--password-stdin is required in non-interactive mode")
	}
	password, err := ReadPassword("Password")
	if err != nil {
		return "", err
	}
	if !confirm {
		return password, nil
	}
	again, err := ReadPassword("Confirm Password")
	if err != nil {
		return "", err
	}
	if again != password {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

// ReadLine reads the first line of r without its line ending. It is used for
// secrets piped on stdin.
func ReadLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("stdin is empty")
	}
	return line, nil
}

// Spin runs fn behind a spinner when show is set.
func Spin(show bool, text string, fn func()) {
	if !show {
		fn()
		return
	}
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		fn()
		return
	}
	defer func() { _ = spinner.Stop() }()
	fn()
}
