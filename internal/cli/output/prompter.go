package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewPrompter reads from stdin and prompts on out.
func NewPrompter(out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(os.Stdin), out: out, fd: int(os.Stdin.Fd())}
}

// String prompts user for a string input
func (p *Prompter) String(label string) (string, error) {
	fmt.Fprint(p.out, label)
	input, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// Password prompts for a password without echo when stdin is a terminal.
func (p *Prompter) Password(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.String(label)
	}

	fmt.Fprint(p.out, label)
	pw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
