// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// palette styles the individual elements of the console report. The zero
// palette renders everything as plain text.
type palette struct {
	colored bool
	live    termenv.Style
	dead    termenv.Style
	info    termenv.Style
	warn    termenv.Style
	fail    termenv.Style
	name    termenv.Style
}

// newPalette returns a palette with colors if colored is true, otherwise a
// plain palette.
func newPalette(colored bool) palette {
	if !colored {
		return palette{}
	}
	return palette{
		colored: true,
		live:    termenv.Style{}.Foreground(termenv.ANSIGreen),
		dead:    termenv.Style{}.Foreground(termenv.ANSIRed),
		info:    termenv.Style{}.Foreground(termenv.ANSICyan),
		warn:    termenv.Style{}.Foreground(termenv.ANSIYellow),
		fail:    termenv.Style{}.Foreground(termenv.ANSIRed).Bold(),
		name:    termenv.Style{}.Bold(),
	}
}

func (p palette) style(s termenv.Style, text string) string {
	if !p.colored {
		return text
	}
	return s.Styled(text)
}

func (p palette) Live(text string) string { return p.style(p.live, text) }
func (p palette) Dead(text string) string { return p.style(p.dead, text) }
func (p palette) Info(text string) string { return p.style(p.info, text) }
func (p palette) Warn(text string) string { return p.style(p.warn, text) }
func (p palette) Fail(text string) string { return p.style(p.fail, text) }
func (p palette) Name(text string) string { return p.style(p.name, text) }

// isTerminal returns true if f is connected to a (Cygwin) terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// wantsColor returns true if output to the specified writer should be
// colorized: it needs to be a terminal, and neither --no-color nor the
// NO_COLOR environment variable must say otherwise.
func wantsColor(w any, noColor bool) bool {
	if noColor || termenv.EnvNoColor() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
