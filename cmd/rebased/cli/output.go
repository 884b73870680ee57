package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iov-one/rebase/errors"
)

// OutputFormatter writes command results as text or json.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the json envelope of every command result.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorView  `json:"error,omitempty"`
}

// ErrorView carries the registered error code next to the log text.
type ErrorView struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs a failure in the configured format.
func (f *OutputFormatter) Error(err error) error {
	code, msg := errors.Info(err, false)
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ErrorView{Code: code, Message: msg},
		})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error [%d]: %s\n", code, msg)
	return werr
}
