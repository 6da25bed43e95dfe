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

// Package errorcodes defines the process exit codes and the error type used to
// carry them from the failing step up to the command line.
package errorcodes

import (
	"fmt"

	"github.com/pkg/errors"
)

// ExitCode is the status the process exits with.
type ExitCode int

const (
	// Success (0 is the no-error return code in Unix)
	Success ExitCode = iota

	// ErrBadArgs is returned when the command line is malformed: a missing
	// value, a duplicate -d or an unknown option (1)
	ErrBadArgs

	// ErrOperationFailed is returned for any failure that is not covered by
	// another code: ambiguous device selection, file I/O, USB communication
	// and HEX codec errors (2)
	ErrOperationFailed

	// ErrBootloaderNotFound is returned when no bootloader matches the
	// current filter, including after a --wait timeout (3)
	ErrBootloaderNotFound
)

func (c ExitCode) String() string {
	switch c {
	case Success:
		return "success"
	case ErrBadArgs:
		return "bad arguments"
	case ErrOperationFailed:
		return "operation failed"
	case ErrBootloaderNotFound:
		return "bootloader not found"
	default:
		return fmt.Sprintf("exit code %d", int(c))
	}
}

// Error is an error tagged with the exit code it maps to.
type Error struct {
	Code ExitCode
	// Info marks conditions that are reported at informational severity,
	// like an empty --list probe.
	Info bool
	err  error
}

func (e *Error) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.err
}

// BadArgs returns an ErrBadArgs error with the given message.
func BadArgs(format string, args ...interface{}) error {
	return &Error{Code: ErrBadArgs, err: errors.Errorf(format, args...)}
}

// NotFound returns an ErrBootloaderNotFound error with the given message.
func NotFound(format string, args ...interface{}) error {
	return &Error{Code: ErrBootloaderNotFound, err: errors.Errorf(format, args...)}
}

// Failedf returns an ErrOperationFailed error with the given message.
func Failedf(format string, args ...interface{}) error {
	return &Error{Code: ErrOperationFailed, err: errors.Errorf(format, args...)}
}

// Failed tags err with ErrOperationFailed. Errors that already carry an exit
// code keep it. A nil err yields nil.
func Failed(err error) error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return err
	}
	return &Error{Code: ErrOperationFailed, err: err}
}

// AsInfo returns a copy of err reported at informational severity.
func AsInfo(err error) error {
	var coded *Error
	if !errors.As(err, &coded) {
		return &Error{Code: ErrOperationFailed, Info: true, err: err}
	}
	return &Error{Code: coded.Code, Info: true, err: err}
}

// Code returns the exit code carried by err. A nil err is Success and an
// untagged error is ErrOperationFailed.
func Code(err error) ExitCode {
	if err == nil {
		return Success
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ErrOperationFailed
}

// IsInfo reports whether err should be shown as information rather than as
// an error.
func IsInfo(err error) bool {
	var coded *Error
	return errors.As(err, &coded) && coded.Info
}
