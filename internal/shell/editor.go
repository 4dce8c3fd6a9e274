// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

type (
	// LineEditor reads command lines from a user.
	LineEditor interface {
		// ReadLine shows prompt and returns the next line without its
		// terminator. It returns io.EOF once input is exhausted.
		ReadLine(prompt string) (string, error)
		// AddHistory records a line that was run.
		AddHistory(line string)
	}

	// PlainEditor is a LineEditor over a plain reader with no editing or
	// history.
	PlainEditor struct {
		in  *bufio.Reader
		out io.Writer
	}
)

// NewPlainEditor returns a PlainEditor reading from in and writing
// prompts to out.
func NewPlainEditor(in io.Reader, out io.Writer) *PlainEditor {
	return &PlainEditor{in: bufio.NewReader(in), out: out}
}

// ReadLine implements LineEditor. A final line without a newline is
// returned before io.EOF.
func (e *PlainEditor) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(e.out, prompt); err != nil {
		return "", err
	}
	line, err := e.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AddHistory implements LineEditor; plain input keeps no history.
func (e *PlainEditor) AddHistory(string) {}
