package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

// color wraps text in ANSI color codes if colors are enabled.
func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// Format returns a formatted error message for terminal display.
func (e *PropError) Format() string {
	var b strings.Builder

	// Header line
	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
		b.WriteString(white(e.Message))
	} else {
		b.WriteString(red(bold("ERROR: ")))
		b.WriteString(white(e.Message))
	}
	b.WriteString("\n\n")

	// Detail
	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Cause
	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray("Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	// Suggestion
	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *PropError) FormatCompact() string {
	var b strings.Builder

	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	return b.String()
}

// JSONError is the JSON form of a PropError.
type JSONError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// JSON returns the error's JSON form.
func (e *PropError) JSON() JSONError {
	return JSONError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError prints a formatted error to stderr. A PropError anywhere in
// err's chain gets the full format.
func PrintError(err error) {
	fmt.Fprint(os.Stderr, FormatError(err))
}

// FormatError is the text PrintError prints.
func FormatError(err error) string {
	var pe *PropError
	if stderrors.As(err, &pe) {
		if err != error(pe) {
			// Keep the context added by wrappers as the detail.
			cp := *pe
			if cp.Detail == "" {
				cp.Detail = err.Error()
			}
			return cp.Format()
		}
		return pe.Format()
	}
	return fmt.Sprintf("\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}

