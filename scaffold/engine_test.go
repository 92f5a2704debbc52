package scaffold

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/storage"
)

type fixture struct {
	store  *storage.Store
	engine *Engine
	output string
	root   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		root:   filepath.Join(base, "templates"),
		output: filepath.Join(base, "out"),
		store:  storage.NewStore(filepath.Join(base, "artifacts")),
	}
	f.engine = NewEngine(f.store, f.root, f.output)
	f.engine.Now = func() time.Time {
		return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	}

	f.writeTemplate(t, "base/README.md", "# {{PROJECT_NAME}}\n")
	f.writeTemplate(t, "base/config.yaml",
		"project: {{PROJECT_NAME}}\n<!-- IF:DATABASE=postgres -->\ndatabase: postgres\n<!-- END:IF -->\n")
	f.writeTemplate(t, "frontend/package.json", "{\n  \"name\": \"{{PROJECT_NAME}}\"\n}\n")
	return f
}

func (f *fixture) writeTemplate(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (f *fixture) readOutput(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.output, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func planDoc() *artifact.ScaffoldPlan {
	return &artifact.ScaffoldPlan{
		ProjectName:       "storefront",
		MothershipVersion: "1.0.0",
		Features: artifact.FeatureSelections{
			Auth:     "jwt",
			Database: "postgres",
			Storage:  "s3",
		},
		Domains: []artifact.Domain{
			{Name: "identity", RootEntity: "ENT-001", Entities: []string{"ENT-001"}},
			{Name: "sales", RootEntity: "ENT-002", Entities: []string{"ENT-002"}, DependsOn: []string{"identity"}},
		},
		Templates: []artifact.TemplateEntry{
			{ID: "SCAFFOLD-001", SourcePath: "base", TargetPath: "."},
			{ID: "SCAFFOLD-002", SourcePath: "frontend", TargetPath: "frontend/"},
		},
	}
}

func approvedPlan(t *testing.T, doc *artifact.ScaffoldPlan) *artifact.Artifact {
	t.Helper()
	a, err := artifact.New(artifact.TypeScaffoldPlan, "1.0.0", doc)
	require.NoError(t, err)
	a.Status = artifact.StatusApproved
	a.ApprovalRequired = true
	a.Approvers = []string{"lena"}
	a.Approvals = []string{"lena"}
	return a
}

func TestApplyCreatesFileTree(t *testing.T) {
	f := newFixture(t)
	plan := approvedPlan(t, planDoc())
	require.NoError(t, f.store.SaveArtifact(plan))

	report, err := f.engine.Apply(plan)
	require.NoError(t, err)

	assert.Equal(t, 3, report.FilesCreated)
	assert.Equal(t, 0, report.FilesSkipped)
	assert.Equal(t, 0, report.Errors)

	assert.Equal(t, "# storefront\n", f.readOutput(t, "README.md"))
	assert.Equal(t, "project: storefront\ndatabase: postgres\n", f.readOutput(t, "config.yaml"))
	assert.Contains(t, f.readOutput(t, "frontend/package.json"), `"name": "storefront"`)

	// The defect this guards against: frontend/frontend/package.json.
	_, err = os.Stat(filepath.Join(f.output, "frontend", "frontend"))
	assert.True(t, os.IsNotExist(err))

	// Clean-render baselines recorded for every staged file.
	assert.Len(t, report.Baselines, 3)
	assert.Contains(t, report.Baselines, "frontend/package.json")

	// Genesis artifacts land in the project's document area.
	_, err = os.Stat(filepath.Join(f.output, "docs", "planning", storage.ScaffoldPlanFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.output, "docs", "planning", storage.ScaffoldAppliedFile))
	assert.NoError(t, err)

	// Connection state initialized to the mothership version.
	cs, err := storage.LoadConnection(f.output)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", cs.ProjectVersion)
	assert.Equal(t, "unchecked", cs.State)
	assert.True(t, cs.SyncEnabled)
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	plan := approvedPlan(t, planDoc())
	require.NoError(t, f.store.SaveArtifact(plan))

	first, err := f.engine.Apply(plan)
	require.NoError(t, err)
	require.Equal(t, 3, first.FilesCreated)

	firstSync, err := storage.LoadConnection(f.output)
	require.NoError(t, err)

	f.engine.Now = func() time.Time {
		return time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	}
	second, err := f.engine.Apply(plan)
	require.NoError(t, err)

	assert.Equal(t, 0, second.FilesCreated)
	assert.Equal(t, 3, second.FilesSkipped)
	for _, rec := range second.Entries {
		for _, notice := range rec.Skipped {
			assert.Contains(t, notice, "already up to date")
		}
	}

	// Re-application never resets the connection.
	secondSync, err := storage.LoadConnection(f.output)
	require.NoError(t, err)
	assert.Equal(t, firstSync.LastSync, secondSync.LastSync)
}

func TestApplyLeavesCustomizedFilesUntouched(t *testing.T) {
	f := newFixture(t)
	plan := approvedPlan(t, planDoc())
	require.NoError(t, f.store.SaveArtifact(plan))

	_, err := f.engine.Apply(plan)
	require.NoError(t, err)

	custom := "# storefront, heavily edited\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.output, "README.md"), []byte(custom), 0644))

	report, err := f.engine.Apply(plan)
	require.NoError(t, err)

	assert.Equal(t, custom, f.readOutput(t, "README.md"))
	assert.Equal(t, 0, report.FilesCreated)
	assert.Equal(t, 3, report.FilesSkipped)

	var customizedNotice bool
	for _, notice := range report.Entries[0].Skipped {
		if notice == "README.md (customized, left untouched)" {
			customizedNotice = true
		}
	}
	assert.True(t, customizedNotice, "expected a customization notice, got %+v", report.Entries[0].Skipped)
}

func TestDomainCycleAbortsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	doc := planDoc()
	doc.Domains = []artifact.Domain{
		{Name: "sales", RootEntity: "ENT-002", Entities: []string{"ENT-002"}, DependsOn: []string{"sales"}},
	}
	plan := approvedPlan(t, doc)

	_, err := f.engine.Apply(plan)

	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeDomainMappingInvalid))
	_, statErr := os.Stat(f.output)
	assert.True(t, os.IsNotExist(statErr), "output directory must not exist after an aborted apply")
}

func TestApplyRequiresApproval(t *testing.T) {
	f := newFixture(t)
	plan := approvedPlan(t, planDoc())
	plan.Approvals = nil

	_, err := f.engine.Apply(plan)

	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeApprovalRequired))
	var ae *artifact.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Details, "lena")
	_, statErr := os.Stat(f.output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyRefusesDraftPlan(t *testing.T) {
	f := newFixture(t)
	plan := approvedPlan(t, planDoc())
	plan.Status = artifact.StatusDraft

	_, err := f.engine.Apply(plan)

	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeValidationFailed))
}

func TestApplyRefusesProjectNameMismatch(t *testing.T) {
	f := newFixture(t)
	erd := &artifact.ERD{
		ProjectName: "some-other-project",
		Entities: []artifact.Entity{
			{ID: "ENT-001", Name: "User", Attributes: []artifact.Attribute{
				{Name: "id", Type: "UUID", PrimaryKey: true},
			}},
			{ID: "ENT-002", Name: "Order", Attributes: []artifact.Attribute{
				{Name: "id", Type: "UUID", PrimaryKey: true},
			}},
		},
	}
	erdArtifact, err := artifact.New(artifact.TypeERD, "1.0.0", erd)
	require.NoError(t, err)
	require.NoError(t, f.store.SaveArtifact(erdArtifact))

	plan := approvedPlan(t, planDoc())
	_, err = f.engine.Apply(plan)

	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeValidationFailed))
	assert.Contains(t, err.Error(), "project_name")
}

func TestPathErrorIsFatalOnlyToItsEntry(t *testing.T) {
	f := newFixture(t)
	doc := planDoc()
	doc.Templates = []artifact.TemplateEntry{
		{ID: "SCAFFOLD-001", SourcePath: "base", TargetPath: "../outside"},
		{ID: "SCAFFOLD-002", SourcePath: "frontend", TargetPath: "frontend/"},
	}
	plan := approvedPlan(t, doc)

	report, err := f.engine.Apply(plan)
	require.NoError(t, err)

	assert.NotEmpty(t, report.Entries[0].Errors)
	assert.Equal(t, 0, report.Entries[0].FilesCreated)
	assert.Equal(t, 1, report.Entries[1].FilesCreated)
	assert.FileExists(t, filepath.Join(f.output, "frontend", "package.json"))
}

func TestUndefinedVariableRecordedPerFile(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "extra/broken.md", "needs {{MISSING_BINDING}}\n")
	f.writeTemplate(t, "extra/ok.md", "plain content\n")

	doc := planDoc()
	doc.Templates = []artifact.TemplateEntry{
		{ID: "SCAFFOLD-001", SourcePath: "extra", TargetPath: "docs/"},
	}
	plan := approvedPlan(t, doc)

	report, err := f.engine.Apply(plan)
	require.NoError(t, err)

	require.Len(t, report.Entries[0].Errors, 1)
	assert.Contains(t, report.Entries[0].Errors[0], "MISSING_BINDING")
	assert.Equal(t, 1, report.Entries[0].FilesCreated)
	assert.FileExists(t, filepath.Join(f.output, "docs", "ok.md"))
}

func TestConflictingEntriesReported(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "alt/README.md", "# a different readme\n")

	doc := planDoc()
	doc.Templates = []artifact.TemplateEntry{
		{ID: "SCAFFOLD-001", SourcePath: "base", TargetPath: "."},
		{ID: "SCAFFOLD-002", SourcePath: "alt", TargetPath: "."},
	}
	plan := approvedPlan(t, doc)

	report, err := f.engine.Apply(plan)
	require.NoError(t, err)

	require.NotEmpty(t, report.Entries[1].Errors)
	assert.Contains(t, report.Entries[1].Errors[0], "TEMPLATE_CONFLICT")
	assert.Equal(t, "# storefront\n", f.readOutput(t, "README.md"))
}

func TestEntryVariablesOverridePlanVariables(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "svc/name.txt", "{{PROJECT_NAME}}/{{SERVICE}}\n")

	doc := planDoc()
	doc.Templates = []artifact.TemplateEntry{
		{
			ID:         "SCAFFOLD-001",
			SourcePath: "svc",
			TargetPath: "services",
			Variables:  map[string]string{"SERVICE": "checkout", "PROJECT_NAME": "renamed"},
		},
	}
	plan := approvedPlan(t, doc)

	_, err := f.engine.Apply(plan)
	require.NoError(t, err)
	assert.Equal(t, "renamed/checkout\n", f.readOutput(t, "services/name.txt"))
}
