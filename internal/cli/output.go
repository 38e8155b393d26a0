package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes of the initsql commands.
const (
	ExitSuccess      = 0 // every kind migrated and verified
	ExitFailure      = 1 // a kind failed or counts do not match
	ExitCommandError = 2 // bad configuration, unreachable store, invalid flags
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes command results either as a JSON envelope or as text.
type printer struct {
	format string
	w      io.Writer
}

type response struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// result writes data. text renders it for humans when the format is text.
func (p printer) result(ok bool, data interface{}, failure error, text func(w io.Writer)) error {
	if p.format == "json" {
		r := response{Status: "ok", Data: data}
		if !ok {
			r.Status = "error"
		}
		if failure != nil {
			r.Error = failure.Error()
		}
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	text(p.w)
	return nil
}
