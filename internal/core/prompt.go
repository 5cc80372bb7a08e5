package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// LinePrompter reads one line from In. Only "y" (any case, surrounding
// whitespace ignored) confirms; EOF counts as no.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p LinePrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s (y/n): ", question)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y", nil
}

// AutoConfirm answers yes without reading input.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string) (bool, error) { return true, nil }
