// Package output renders results as human-readable console text.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

// Separator is printed between consecutive runs in the interactive menu
const Separator = "=================================================="

// Console writes marked lines: [*] info, [+] positive, [-] negative, [!] error
type Console struct {
	mu sync.Mutex
	w  io.Writer

	info, good, miss, bad, head func(a ...any) string
}

// NewConsole creates a console on w. Colors are used only when useColor is set
// and the terminal supports them.
func NewConsole(w io.Writer, useColor bool) *Console {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if !useColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &Console{
		w:    w,
		info: mk(color.FgCyan),
		good: mk(color.FgGreen),
		miss: mk(color.FgYellow),
		bad:  mk(color.FgRed),
		head: mk(color.Bold),
	}
}

// Writer returns the underlying writer
func (c *Console) Writer() io.Writer {
	return c.w
}

func (c *Console) line(marker string, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", marker, fmt.Sprintf(format, args...))
}

// Infof prints a [*] line
func (c *Console) Infof(format string, args ...any) { c.line(c.info("[*]"), format, args...) }

// Goodf prints a [+] line
func (c *Console) Goodf(format string, args ...any) { c.line(c.good("[+]"), format, args...) }

// Missf prints a [-] line
func (c *Console) Missf(format string, args ...any) { c.line(c.miss("[-]"), format, args...) }

// Errorf prints a [!] line
func (c *Console) Errorf(format string, args ...any) { c.line(c.bad("[!]"), format, args...) }

// Section prints a heading
func (c *Console) Section(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n%s\n", c.head("--- "+title+" ---"))
}

// Separate prints the separator between runs
func (c *Console) Separate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n%s\n\n", Separator)
}

// Indent prints each line of text indented under the previous marker line
func (c *Console) Indent(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for line := range strings.Lines(text) {
		fmt.Fprintf(c.w, "    %s\n", strings.TrimRight(line, "\r\n"))
	}
}

// table runs fn against a tabwriter on the console and flushes it
func (c *Console) table(fn func(tw *tabwriter.Writer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tw := tabwriter.NewWriter(c.w, 0, 2, 2, ' ', 0)
	fn(tw)
	_ = tw.Flush()
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}
