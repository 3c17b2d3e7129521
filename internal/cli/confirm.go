package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/danieljhkim/workbench/internal/engine"
)

// errNotInteractive indicates a confirmation was needed but stdin is not a
// terminal.
var errNotInteractive = errors.New("stdin is not a terminal")

// interactive reports whether in can answer prompts. Readers other than
// files (tests, pipes wired through cobra) are treated as scripted input.
func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

// promptConfirmer asks questions on out and reads y/N answers from in.
type promptConfirmer struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive(in),
	}
}

// Confirm implements engine.Confirmer.
func (c *promptConfirmer) Confirm(question string) (bool, error) {
	if !c.interactive {
		return false, errNotInteractive
	}
	_, _ = fmt.Fprintf(c.out, "%s ", question)

	answer, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || answer == "") {
		if err == io.EOF {
			return false, engine.ErrNoAnswer
		}
		return false, err
	}
	return engine.IsYes(strings.TrimSpace(answer)), nil
}
