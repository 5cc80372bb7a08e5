package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console prints the colour-coded status lines shown to the user.
type Console struct {
	Out io.Writer

	cyan   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

func NewConsole(out io.Writer) *Console {
	return &Console{
		Out:    out,
		cyan:   color.New(color.FgCyan),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
}

func (c *Console) Progress(format string, a ...any) { c.cyan.Fprintf(c.Out, format+"\n", a...) }
func (c *Console) Success(format string, a ...any)  { c.green.Fprintf(c.Out, format+"\n", a...) }
func (c *Console) Warn(format string, a ...any)     { c.yellow.Fprintf(c.Out, format+"\n", a...) }
func (c *Console) Error(format string, a ...any)    { c.red.Fprintf(c.Out, format+"\n", a...) }

func (c *Console) Blank() { fmt.Fprintln(c.Out) }

// Banner prints the framed deploy header followed by the chosen API URL.
func (c *Console) Banner(appName, apiURL string) {
	rule := strings.Repeat("=", 44)
	c.Blank()
	c.Progress("%s", rule)
	c.Progress("  Deploying %s", appName)
	c.Progress("%s", rule)
	c.Blank()
	fmt.Fprintf(c.Out, "Backend API: %s\n", c.yellow.Sprint(apiURL))
	c.Blank()
}
