package artifact

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(CodeDomainMappingInvalid, "domain dependencies form a cycle").
		WithDetails("sales -> billing -> sales")

	got := err.Error()
	want := "DOMAIN_MAPPING_INVALID: domain dependencies form a cycle (sales -> billing -> sales)"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("file vanished")
	err := NewError(CodeArtifactNotFound, "load scaffold plan").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	inner := NewError(CodePathResolution, "target escapes output directory")
	wrapped := fmt.Errorf("apply entry SCAFFOLD-002: %w", inner)

	code, ok := CodeOf(wrapped)
	if !ok || code != CodePathResolution {
		t.Errorf("CodeOf() = %q, %v; want PATH_RESOLUTION_ERROR, true", code, ok)
	}

	if !IsCode(wrapped, CodePathResolution) {
		t.Error("IsCode missed a wrapped pipeline error")
	}
	if IsCode(errors.New("plain"), CodePathResolution) {
		t.Error("IsCode matched a plain error")
	}
}

func TestEveryCodeHasRemediationAndExitCode(t *testing.T) {
	codes := []Code{
		CodeValidationFailed, CodeIDConflict, CodeTemplateConflict,
		CodeVersionMismatch, CodeDomainMappingInvalid, CodePathResolution,
		CodeMigrationScriptFailed, CodeApprovalRequired, CodeArtifactNotFound,
		CodeUndefinedVariable, CodeMalformedTemplate,
	}
	for _, c := range codes {
		if c.Remediation() == "" {
			t.Errorf("code %s has no remediation hint", c)
		}
		if c.ExitCode() == 0 {
			t.Errorf("code %s maps to exit 0", c)
		}
	}
}
