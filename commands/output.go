// Package commands provides the operation logic behind each semforge CLI
// verb. The cobra layer in cmd/semforge parses flags and delegates here;
// everything in this package writes to an injected io.Writer so commands
// stay testable without capturing process output.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/c360studio/semforge/artifact"
)

// errorEnvelope is the machine-parseable failure rendering every verb
// prints on stderr: stable code, message, detail lines, remediation hint.
type errorEnvelope struct {
	Code        artifact.Code `json:"code"`
	Message     string        `json:"message"`
	Details     []string      `json:"details,omitempty"`
	Remediation string        `json:"remediation,omitempty"`
}

// PrintError renders a failure as the structured envelope. Errors without
// a pipeline code render as a plain message with exit class 1.
func PrintError(w io.Writer, err error) {
	var ae *artifact.Error
	if !errors.As(err, &ae) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Error [%s]: %s\n", ae.Code, ae.Message)
	for _, d := range ae.Details {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	if hint := ae.Code.Remediation(); hint != "" {
		fmt.Fprintf(w, "Remediation: %s\n", hint)
	}
}

// PrintErrorJSON renders the failure envelope as JSON for scripted callers.
func PrintErrorJSON(w io.Writer, err error) {
	env := errorEnvelope{Code: artifact.CodeValidationFailed, Message: err.Error()}
	var ae *artifact.Error
	if errors.As(err, &ae) {
		env = errorEnvelope{
			Code:        ae.Code,
			Message:     ae.Message,
			Details:     ae.Details,
			Remediation: ae.Code.Remediation(),
		}
	}
	data, merr := json.MarshalIndent(env, "", "  ")
	if merr != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// ExitCode maps a failure to the CLI process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := artifact.CodeOf(err); ok {
		return code.ExitCode()
	}
	return 1
}

// printJSON pretty-prints any report payload.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
