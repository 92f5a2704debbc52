package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/migrate"
	"github.com/c360studio/semforge/storage"
)

// cliFixture wires a template root, an artifact directory with an approved
// plan, and a project directory the way the CLI verbs see them.
type cliFixture struct {
	templates string
	artifacts string
	project   string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	base := t.TempDir()
	f := &cliFixture{
		templates: filepath.Join(base, "templates"),
		artifacts: filepath.Join(base, "artifacts"),
		project:   filepath.Join(base, "project"),
	}

	write := func(rel, content string) {
		path := filepath.Join(f.templates, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("base/README.md", "# {{PROJECT_NAME}}\n")
	write("base/config.yaml", "project: {{PROJECT_NAME}}\nretries: 1\n")
	f.writeManifest(t, migrate.Manifest{
		Version: "1.0.0",
		Changes: []migrate.Change{
			{ID: "CHG-001", Version: "1.0.0", Title: "initial baseline", Kind: migrate.ChangeNonBreaking},
		},
	})

	doc := &artifact.ScaffoldPlan{
		ProjectName:       "storefront",
		MothershipVersion: "1.0.0",
		Features: artifact.FeatureSelections{
			Auth:     "jwt",
			Database: "postgres",
			Storage:  "s3",
		},
		Domains: []artifact.Domain{
			{Name: "identity", RootEntity: "ENT-001", Entities: []string{"ENT-001"}},
		},
		Templates: []artifact.TemplateEntry{
			{ID: "SCAFFOLD-001", SourcePath: "base", TargetPath: "."},
		},
	}
	plan, err := artifact.New(artifact.TypeScaffoldPlan, "1.0.0", doc)
	require.NoError(t, err)
	plan.Status = artifact.StatusApproved
	require.NoError(t, storage.NewStore(f.artifacts).SaveArtifact(plan))
	return f
}

func (f *cliFixture) writeManifest(t *testing.T, m migrate.Manifest) {
	t.Helper()
	data, err := json.MarshalIndent(m, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(f.templates, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.templates, storage.MothershipFile), data, 0644))
}

func (f *cliFixture) planPath() string {
	return filepath.Join(f.artifacts, storage.ScaffoldPlanFile)
}

func (f *cliFixture) applyScaffold(t *testing.T) string {
	t.Helper()
	var out bytes.Buffer
	cmd := &ApplyCommand{PlanPath: f.planPath(), TemplateRoot: f.templates, OutputDir: f.project}
	require.NoError(t, cmd.Execute(&out))
	return out.String()
}

// bump moves the mothership to 1.2.0 with 2 non-breaking + 1 breaking
// change, matching the classification scenario the check verb must report.
func (f *cliFixture) bump(t *testing.T) {
	t.Helper()
	path := filepath.Join(f.templates, "base", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: {{PROJECT_NAME}}\nretries: 3\n"), 0644))
	f.writeManifest(t, migrate.Manifest{
		Version: "1.2.0",
		Changes: []migrate.Change{
			{ID: "CHG-001", Version: "1.0.0", Title: "initial baseline", Kind: migrate.ChangeNonBreaking},
			{ID: "CHG-002", Version: "1.1.0", Title: "bump retry default", Kind: migrate.ChangeNonBreaking,
				Files: []string{"base/config.yaml"}},
			{ID: "CHG-003", Version: "1.2.0", Title: "restructure readme", Kind: migrate.ChangeBreaking,
				Files: []string{"base/README.md"}},
		},
	})
}

func TestApplyCommandReportsAndLogsSession(t *testing.T) {
	f := newCLIFixture(t)

	out := f.applyScaffold(t)
	assert.Contains(t, out, "Applied scaffold plan for storefront")
	assert.Contains(t, out, "Total: 2 created, 0 skipped, 0 error(s)")
	assert.FileExists(t, filepath.Join(f.project, "README.md"))

	// One session log with the file-change counts.
	entries, err := os.ReadDir(storage.SessionsPath(f.project))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	id := entries[0].Name()[:len(entries[0].Name())-len(".json")]
	session, err := storage.OpenSession(f.project, id)
	require.NoError(t, err)
	assert.Equal(t, "apply", session.Command)
	require.NotEmpty(t, session.Entries)
	last := session.Entries[len(session.Entries)-1]
	assert.Equal(t, 2, last.Counts["files_created"])
	assert.NotNil(t, session.EndedAt)
}

func TestMigrateCommandFullFlow(t *testing.T) {
	f := newCLIFixture(t)
	f.applyScaffold(t)
	f.bump(t)

	var out bytes.Buffer
	check := &MigrateCommand{Mode: "check", ProjectDir: f.project, TemplateRoot: f.templates}
	require.NoError(t, check.Execute(&out))
	assert.Contains(t, out.String(), "Pending changes: 2 total (1 non-breaking, 1 breaking, 0 security)")

	out.Reset()
	preview := &MigrateCommand{Mode: "preview", ProjectDir: f.project, TemplateRoot: f.templates,
		Approvers: []string{"lena"}}
	require.NoError(t, preview.Execute(&out))
	assert.Contains(t, out.String(), "use-template")
	assert.Contains(t, out.String(), "config.yaml")

	// Apply refuses without the recorded approval.
	out.Reset()
	apply := &MigrateCommand{Mode: "apply", ProjectDir: f.project, TemplateRoot: f.templates}
	err := apply.Execute(&out)
	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeApprovalRequired))
	assert.Equal(t, 2, ExitCode(err))

	out.Reset()
	approve := &MigrateCommand{Mode: "approve", ProjectDir: f.project, TemplateRoot: f.templates,
		Approver: "lena"}
	require.NoError(t, approve.Execute(&out))
	assert.Contains(t, out.String(), "approved")

	out.Reset()
	require.NoError(t, apply.Execute(&out))
	assert.Contains(t, out.String(), "Migration 1.0.0 -> 1.2.0")
	assert.Contains(t, out.String(), "wrote config.yaml")

	data, err := os.ReadFile(filepath.Join(f.project, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "retries: 3")

	cs, err := storage.LoadConnection(f.project)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", cs.ProjectVersion)
	assert.Equal(t, "applied", cs.State)
}

func TestMigrateCommandCheckTouchesNoFile(t *testing.T) {
	f := newCLIFixture(t)
	f.applyScaffold(t)
	f.bump(t)

	before, err := os.ReadFile(filepath.Join(f.project, "config.yaml"))
	require.NoError(t, err)

	var out bytes.Buffer
	check := &MigrateCommand{Mode: "check", ProjectDir: f.project, TemplateRoot: f.templates}
	require.NoError(t, check.Execute(&out))

	after, err := os.ReadFile(filepath.Join(f.project, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrateCommandUnknownMode(t *testing.T) {
	var out bytes.Buffer
	cmd := &MigrateCommand{Mode: "sync", ProjectDir: t.TempDir(), TemplateRoot: t.TempDir()}
	err := cmd.Execute(&out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migrate mode")
}

func TestStatusCommand(t *testing.T) {
	f := newCLIFixture(t)
	f.applyScaffold(t)

	var out bytes.Buffer
	cmd := &StatusCommand{ProjectDir: f.project}
	require.NoError(t, cmd.Execute(&out))

	assert.Contains(t, out.String(), "Project version:    1.0.0")
	assert.Contains(t, out.String(), "Migration state:    unchecked")
	assert.Contains(t, out.String(), "Sync enabled:       true")
}

func TestStatusCommandUnconnectedProject(t *testing.T) {
	var out bytes.Buffer
	cmd := &StatusCommand{ProjectDir: t.TempDir()}
	err := cmd.Execute(&out)
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))
}

func TestPrintErrorRendersEnvelope(t *testing.T) {
	err := artifact.NewError(artifact.CodeDomainMappingInvalid,
		"domain dependency cycle: sales -> sales").WithDetails("sales")

	var out bytes.Buffer
	PrintError(&out, err)

	assert.Contains(t, out.String(), "Error [DOMAIN_MAPPING_INVALID]")
	assert.Contains(t, out.String(), "- sales")
	assert.Contains(t, out.String(), "Remediation:")
	assert.Equal(t, 5, ExitCode(err))
}

func TestPrintErrorJSON(t *testing.T) {
	err := artifact.NewError(artifact.CodeVersionMismatch,
		"project 2.0.0 is ahead of mothership 1.2.0")

	var out bytes.Buffer
	PrintErrorJSON(&out, err)

	var env struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		Remediation string `json:"remediation"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.Equal(t, "VERSION_MISMATCH", env.Code)
	assert.NotEmpty(t, env.Remediation)
	assert.Equal(t, 4, ExitCode(err))
}
