package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a stable, machine-parseable error class. Codes are part of the
// CLI contract: scripts match on them, so they never change meaning.
type Code string

const (
	// CodeValidationFailed is a structural or cross-reference violation.
	// The error carries the full violation list, never just the first.
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// CodeIDConflict is an allocator collision between concurrent writers.
	CodeIDConflict Code = "ID_CONFLICT"

	// CodeTemplateConflict means customization was detected where a clean
	// overwrite was assumed.
	CodeTemplateConflict Code = "TEMPLATE_CONFLICT"

	// CodeVersionMismatch means the project is ahead of its baseline.
	CodeVersionMismatch Code = "VERSION_MISMATCH"

	// CodeDomainMappingInvalid is a domain cycle or a missing/duplicate
	// root entity. Fatal to the apply run; nothing is written.
	CodeDomainMappingInvalid Code = "DOMAIN_MAPPING_INVALID"

	// CodePathResolution means a destination path collapsed, escaped the
	// target, or duplicated a boundary segment. Fatal to that template
	// entry only.
	CodePathResolution Code = "PATH_RESOLUTION_ERROR"

	// CodeMigrationScriptFailed is a failed migration step. The backup is
	// preserved and rollback instructions are surfaced.
	CodeMigrationScriptFailed Code = "MIGRATION_SCRIPT_FAILED"

	// CodeApprovalRequired means a plan or preview lacks required sign-off.
	CodeApprovalRequired Code = "APPROVAL_REQUIRED"

	// CodeArtifactNotFound means a referenced artifact file is missing.
	CodeArtifactNotFound Code = "ARTIFACT_NOT_FOUND"

	// CodeUndefinedVariable is a template placeholder with no binding.
	CodeUndefinedVariable Code = "UNDEFINED_VARIABLE"

	// CodeMalformedTemplate is an unmatched or malformed conditional marker.
	CodeMalformedTemplate Code = "MALFORMED_TEMPLATE"
)

// Remediation returns the human hint paired with the code.
func (c Code) Remediation() string {
	switch c {
	case CodeValidationFailed:
		return "fix the listed violations in the artifact and re-run validate"
	case CodeIDConflict:
		return "re-read the artifact store and retry allocation against the refreshed ID set"
	case CodeTemplateConflict:
		return "choose a preservation strategy (keep-custom, use-template, manual-merge) and re-run"
	case CodeVersionMismatch:
		return "project version is ahead of the mothership; reconcile versions manually"
	case CodeDomainMappingInvalid:
		return "fix the domain mapping in the scaffold plan; nothing was written"
	case CodePathResolution:
		return "fix the template entry's source_path/target_path so they resolve inside the output directory"
	case CodeMigrationScriptFailed:
		return "restore from the reported backup directory, fix the failing step, and re-run migrate apply"
	case CodeApprovalRequired:
		return "collect the missing approvals and re-run"
	case CodeArtifactNotFound:
		return "check the path, or produce the artifact with its upstream phase first"
	case CodeUndefinedVariable:
		return "add the missing variable binding to the template manifest entry"
	case CodeMalformedTemplate:
		return "balance the <!-- IF:... --> / <!-- END:IF --> markers in the template"
	}
	return ""
}

// ExitCode maps the code to the CLI process exit status.
func (c Code) ExitCode() int {
	switch c {
	case CodeValidationFailed:
		return 1
	case CodeApprovalRequired:
		return 2
	case CodeIDConflict, CodeTemplateConflict:
		return 3
	case CodeVersionMismatch:
		return 4
	case CodeDomainMappingInvalid:
		return 5
	case CodePathResolution, CodeUndefinedVariable, CodeMalformedTemplate:
		return 6
	case CodeMigrationScriptFailed:
		return 7
	case CodeArtifactNotFound:
		return 8
	}
	return 1
}

// Error is the structured failure every component returns for pipeline
// faults: a stable code, a message, optional detail lines (offending IDs,
// file paths), and the wrapped cause.
type Error struct {
	Code    Code
	Message string
	Details []string
	Err     error
}

// NewError builds an Error for code with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails appends detail lines and returns the error for chaining.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Details) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(e.Details, "; "))
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Remediation returns the hint for this error's code.
func (e *Error) Remediation() string {
	return e.Code.Remediation()
}

// CodeOf extracts the pipeline error code from err, unwrapping as needed.
func CodeOf(err error) (Code, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
