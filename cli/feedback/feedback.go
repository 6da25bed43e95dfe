/*
	p-load
	Copyright (c) 2024 p-load authors.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package feedback

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputFormat is an output format
type OutputFormat int

const (
	// Text is the plain text format, suitable for interactive terminals
	Text OutputFormat = iota
	// JSON format
	JSON
)

var formats map[string]OutputFormat = map[string]OutputFormat{
	"json": JSON,
	"text": Text,
}

func (f OutputFormat) String() string {
	for res, format := range formats {
		if format == f {
			return res
		}
	}
	panic("unknown output format")
}

// ParseOutputFormat parses a string and returns the corresponding OutputFormat.
// The boolean returned is true if the string was a valid OutputFormat.
func ParseOutputFormat(in string) (OutputFormat, bool) {
	format, found := formats[in]
	return format, found
}

var (
	format      OutputFormat = Text
	stdOut      io.Writer    = os.Stdout
	stdErr      io.Writer    = os.Stderr
	interactive bool         = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
)

// Result is anything more complex than a sentence that needs to be printed
// for the user.
type Result interface {
	fmt.Stringer
	Data() interface{}
}

// SetFormat can be used to change the output format at runtime
func SetFormat(f OutputFormat) {
	format = f
}

// GetFormat returns the output format currently set
func GetFormat() OutputFormat {
	return format
}

// SetOut redirects the standard output. Info and progress messages are
// printed only if interactive is true.
func SetOut(w io.Writer, isInteractive bool) {
	stdOut = w
	interactive = isInteractive
}

// Out returns the writer used as standard output.
func Out() io.Writer {
	return stdOut
}

// SetErr redirects the standard error.
func SetErr(w io.Writer) {
	stdErr = w
}

// Reset restores the default format and outputs.
func Reset() {
	format = Text
	stdOut, stdErr = os.Stdout, os.Stderr
	interactive = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	resetProgress()
}

// Info prints a message for a human sitting at a terminal. Nothing is
// printed when the output is redirected or the format is not Text.
func Info(msg string) {
	if !interactive || format != Text {
		return
	}
	startNewLine()
	fmt.Fprintln(stdOut, msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...interface{}) {
	Info(fmt.Sprintf(format, args...))
}

// Warning prints a warning on stderr.
func Warning(msg string) {
	startNewLine()
	fmt.Fprintln(stdErr, "Warning: "+msg)
}

// Error prints an error on stderr, or as a JSON object on stdout when the
// format is JSON.
func Error(msg string) {
	startNewLine()
	if format == Text {
		fmt.Fprintln(stdErr, "Error: "+msg)
		return
	}

	type errorResult struct {
		Error string `json:"error"`
	}
	d, _ := json.MarshalIndent(&errorResult{Error: msg}, "", "  ")
	fmt.Fprintln(stdOut, string(d))
}

// PrintResult is a convenient wrapper to provide feedback for complex data,
// where the contents can't be just serialized to JSON but requires more
// structure.
func PrintResult(res Result) {
	var data string
	switch format {
	case JSON:
		d, err := json.MarshalIndent(res.Data(), "", "  ")
		if err != nil {
			Error(fmt.Sprintf("Error during JSON encoding of the output: %v", err))
			return
		}
		data = string(d)
	case Text:
		data = res.String()
	default:
		panic("unknown output format")
	}
	if data != "" {
		startNewLine()
		fmt.Fprintln(stdOut, data)
	}
}
