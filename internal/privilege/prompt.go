package privilege

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when a password is needed but stdin is not a
// terminal.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// Prompter asks the user for a password.
type Prompter interface {
	Prompt(message string) (string, error)
}

// TermPrompter reads a password from a terminal without echo.
type TermPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTermPrompter prompts on stderr and reads from stdin.
func NewTermPrompter() *TermPrompter {
	return &TermPrompter{In: os.Stdin, Out: os.Stderr}
}

// Prompt writes message and reads one line with echo disabled.
func (p *TermPrompter) Prompt(message string) (string, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}

	fmt.Fprint(p.Out, message+" ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

// StaticPrompter returns a fixed password. Useful for tests.
type StaticPrompter struct {
	Password string
	Err      error
	Calls    int
}

// Prompt returns the configured password or error.
func (p *StaticPrompter) Prompt(string) (string, error) {
	p.Calls++
	if p.Err != nil {
		return "", p.Err
	}
	return p.Password, nil
}
