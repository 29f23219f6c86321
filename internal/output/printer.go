// Package output renders portalctl messages and tables.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"portal-client/internal/domain"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// PrinterOptions configures the Printer
type PrinterOptions struct {
	Out       io.Writer
	Err       io.Writer
	ColorMode ColorMode
	Quiet     bool
}

// Printer writes user-facing messages. It is the CLI's Notifier and Navigator.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	quiet     bool
}

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

// NewPrinterWithOptions creates a new printer with full options
func NewPrinterWithOptions(opts PrinterOptions) *Printer {
	p := &Printer{
		out:       opts.Out,
		err:       opts.Err,
		useColors: ResolveColors(opts.ColorMode),
		quiet:     opts.Quiet,
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.err == nil {
		p.err = os.Stderr
	}
	return p
}

// Out is where command results go.
func (p *Printer) Out() io.Writer {
	return p.out
}

// IsQuiet returns whether the printer is in quiet mode
func (p *Printer) IsQuiet() bool {
	return p.quiet
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, format+"\n", args...)
	}
}

// Success prints a success message.
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ %s\n", msg)
	} else {
		fmt.Fprintf(p.out, "[OK] %s\n", msg)
	}
}

// Warning prints a warning message.
func (p *Printer) Warning(msg string) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ %s\n", msg)
	} else {
		fmt.Fprintf(p.err, "[WARN] %s\n", msg)
	}
}

// Error prints an error message. Errors are shown even in quiet mode.
func (p *Printer) Error(msg string) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ %s\n", msg)
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", msg)
	}
}

// Print prints a plain message
func (p *Printer) Print(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section header
func (p *Printer) Header(title string) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		color.New(color.FgWhite).Fprintf(p.out, "%s\n", strings.Repeat("─", len(title)))
	} else {
		fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	}
}

// RouteHints maps client routes to the command that shows them.
var RouteHints = map[string]string{
	domain.RouteHome:  "portalctl whoami",
	domain.RouteLogin: "portalctl login --email <email>",
}

// Navigate prints where to go next. A terminal cannot change pages, so the
// route becomes a command suggestion.
func (p *Printer) Navigate(route string) {
	if p.quiet {
		return
	}
	hint, ok := RouteHints[route]
	if !ok {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Dim("Next:"), hint)
}

// StatusBadge returns a colored marker for a session status.
func (p *Printer) StatusBadge(status domain.SessionStatus) string {
	if !p.useColors {
		return fmt.Sprintf("[%s]", status)
	}
	switch status {
	case domain.SessionAuthenticated:
		return color.GreenString("● %s", status)
	case domain.SessionUnauthenticated:
		return color.RedString("● %s", status)
	default:
		return color.YellowString("○ %s", status)
	}
}

// Bold returns text in bold
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

// Dim returns dimmed text
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}
