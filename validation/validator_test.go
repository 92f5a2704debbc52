package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/artifact"
)

func mustArtifact(t *testing.T, typ artifact.Type, payload any) *artifact.Artifact {
	t.Helper()
	a, err := artifact.New(typ, "1.0.0", payload)
	require.NoError(t, err)
	return a
}

func validERD() *artifact.ERD {
	return &artifact.ERD{
		ProjectName:  "storefront",
		DatabaseType: "postgres",
		Entities: []artifact.Entity{
			{
				ID:        "ENT-001",
				Name:      "User",
				TableName: "users",
				Attributes: []artifact.Attribute{
					{Name: "id", Type: "uuid", PrimaryKey: true},
					{Name: "email", Type: "string", Unique: true},
					{Name: "created_at", Type: "timestamp"},
					{Name: "updated_at", Type: "timestamp"},
				},
			},
			{
				ID:        "ENT-002",
				Name:      "Order",
				TableName: "orders",
				Attributes: []artifact.Attribute{
					{Name: "id", Type: "uuid", PrimaryKey: true},
					{Name: "user_id", Type: "uuid"},
					{Name: "total_cents", Type: "integer"},
					{Name: "created_at", Type: "timestamp"},
					{Name: "updated_at", Type: "timestamp"},
				},
				Indexes: []artifact.Index{
					{Name: "idx_orders_user_id", Columns: []string{"user_id"}},
				},
			},
		},
		Relationships: []artifact.Relationship{
			{
				ID:         "REL-001",
				Name:       "user_orders",
				FromEntity: "ENT-002",
				ToEntity:   "ENT-001",
				Type:       artifact.OneToMany,
				ForeignKey: "user_id",
			},
		},
	}
}

func validPRD() *artifact.PRD {
	return &artifact.PRD{
		ProjectName: "storefront",
		Version:     "1.0.0",
		Features: []artifact.Feature{
			{
				ID:       "FR-001",
				Title:    "Account management",
				Priority: artifact.PriorityHigh,
				UserStories: []artifact.UserStory{
					{
						ID:                 "ST-001",
						Title:              "As a shopper I want to register so that my orders are saved",
						AcceptanceCriteria: []string{"registration persists an account"},
						Priority:           artifact.PriorityHigh,
					},
				},
			},
		},
	}
}

func hasCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func findCode(issues []Issue, code string) *Issue {
	for i := range issues {
		if issues[i].Code == code {
			return &issues[i]
		}
	}
	return nil
}

func TestValidERDPasses(t *testing.T) {
	a := mustArtifact(t, artifact.TypeERD, validERD())
	result := Validate(a, nil)

	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors)
}

func TestForeignKeyMustLiveOnChildEntity(t *testing.T) {
	erd := validERD()
	// ENT-002 keeps everything except the user_id column the
	// relationship claims it owns.
	erd.Entities[1].Attributes = []artifact.Attribute{
		{Name: "id", Type: "uuid", PrimaryKey: true},
		{Name: "total_cents", Type: "integer"},
		{Name: "created_at", Type: "timestamp"},
		{Name: "updated_at", Type: "timestamp"},
	}
	erd.Entities[1].Indexes = nil

	result := Validate(mustArtifact(t, artifact.TypeERD, erd), nil)

	require.False(t, result.Passed)
	issue := findCode(result.Errors, "foreign_key_missing")
	require.NotNil(t, issue, "expected a foreign_key_missing error")
	assert.Contains(t, issue.IDs, "REL-001")
	assert.Contains(t, issue.Message, "user_id")
}

func TestValidatorAccumulatesAllViolations(t *testing.T) {
	erd := validERD()
	erd.ProjectName = ""
	erd.Entities[0].ID = "ENTITY-1"
	erd.Relationships[0].ForeignKey = "account_id"

	result := Validate(mustArtifact(t, artifact.TypeERD, erd), nil)

	require.False(t, result.Passed)
	assert.True(t, hasCode(result.Errors, "missing_field"))
	assert.True(t, hasCode(result.Errors, "malformed_id"))
	assert.True(t, hasCode(result.Errors, "foreign_key_missing"))
	assert.GreaterOrEqual(t, len(result.Errors), 3)
}

func TestSingleFieldCorruption(t *testing.T) {
	tests := []struct {
		name     string
		corrupt  func(*artifact.ERD)
		wantCode string
	}{
		{
			name:     "blank project name",
			corrupt:  func(e *artifact.ERD) { e.ProjectName = "" },
			wantCode: "missing_field",
		},
		{
			name:     "malformed entity id",
			corrupt:  func(e *artifact.ERD) { e.Entities[0].ID = "ENT-01" },
			wantCode: "malformed_id",
		},
		{
			name: "duplicate entity id",
			corrupt: func(e *artifact.ERD) {
				e.Entities[1].ID = "ENT-001"
				e.Relationships = nil
			},
			wantCode: "duplicate_id",
		},
		{
			name:     "unknown cardinality",
			corrupt:  func(e *artifact.ERD) { e.Relationships[0].Type = "one_to_many" },
			wantCode: "invalid_enum",
		},
		{
			name:     "dangling relationship endpoint",
			corrupt:  func(e *artifact.ERD) { e.Relationships[0].ToEntity = "ENT-009" },
			wantCode: "unresolved_entity",
		},
		{
			name: "entity without primary key",
			corrupt: func(e *artifact.ERD) {
				e.Entities[0].Attributes[0].PrimaryKey = false
			},
			wantCode: "missing_primary_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			erd := validERD()
			tt.corrupt(erd)

			result := Validate(mustArtifact(t, artifact.TypeERD, erd), nil)

			require.False(t, result.Passed)
			assert.True(t, hasCode(result.Errors, tt.wantCode),
				"expected code %s, got %+v", tt.wantCode, result.Errors)
		})
	}
}

func TestMissingSiblingDowngradesToWarning(t *testing.T) {
	flows := &artifact.FlowSet{
		ProjectName: "storefront",
		Flows: []artifact.Flow{
			{
				ID:        "FLOW-001",
				Name:      "Checkout",
				FeatureID: "FR-001",
				Steps: []artifact.FlowStep{
					{ID: "STEP-001", Sequence: 1, Action: "submit cart"},
				},
			},
		},
	}

	result := Validate(mustArtifact(t, artifact.TypeFlow, flows), &Set{})

	assert.True(t, result.Passed, "missing sibling must not fail the artifact")
	assert.True(t, hasCode(result.Warnings, "unresolved_feature"))
}

func TestDanglingReferenceWithSiblingPresent(t *testing.T) {
	flows := &artifact.FlowSet{
		ProjectName: "storefront",
		Flows: []artifact.Flow{
			{
				ID:        "FLOW-001",
				Name:      "Checkout",
				FeatureID: "FR-009",
				Steps: []artifact.FlowStep{
					{ID: "STEP-001", Sequence: 1, Action: "submit cart"},
				},
			},
		},
	}

	result := Validate(mustArtifact(t, artifact.TypeFlow, flows), &Set{PRD: validPRD()})

	require.False(t, result.Passed)
	issue := findCode(result.Errors, "unresolved_feature")
	require.NotNil(t, issue)
	assert.Contains(t, issue.Message, "FR-009")
}

func TestTaskBoardReferences(t *testing.T) {
	board := &artifact.TaskBoard{
		ProjectName: "storefront",
		Epics: []artifact.Epic{
			{ID: "EPIC-001", Title: "Accounts", FeatureIDs: []string{"FR-001"}},
		},
		Tasks: []artifact.Task{
			{
				ID:        "TASK-001",
				Title:     "User table migration",
				Type:      artifact.TaskDatabase,
				Priority:  artifact.PriorityHigh,
				EpicID:    "EPIC-001",
				FeatureID: "FR-001",
				EntityIDs: []string{"ENT-001"},
			},
			{
				ID:        "TASK-002",
				Title:     "Registration endpoint",
				Type:      artifact.TaskBackend,
				EpicID:    "EPIC-001",
				DependsOn: []string{"TASK-001"},
			},
		},
		Sprints: []artifact.Sprint{
			{ID: "SPRINT-001", Name: "Sprint 1", Capacity: 40, TaskIDs: []string{"TASK-001", "TASK-002"}},
		},
	}
	siblings := &Set{PRD: validPRD(), ERD: validERD()}

	result := Validate(mustArtifact(t, artifact.TypeTasks, board), siblings)
	assert.True(t, result.Passed, "errors: %+v", result.Errors)

	board.Tasks[1].DependsOn = []string{"TASK-009"}
	result = Validate(mustArtifact(t, artifact.TypeTasks, board), siblings)
	require.False(t, result.Passed)
	assert.True(t, hasCode(result.Errors, "unresolved_task"))

	board.Tasks[1].DependsOn = []string{"TASK-002"}
	result = Validate(mustArtifact(t, artifact.TypeTasks, board), siblings)
	require.False(t, result.Passed)
	assert.True(t, hasCode(result.Errors, "self_dependency"))
}

func TestValidateNeverMutates(t *testing.T) {
	a := mustArtifact(t, artifact.TypeERD, validERD())
	before, err := json.Marshal(a)
	require.NoError(t, err)

	_ = Validate(a, &Set{PRD: validPRD()})

	after, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestUndecodablePayloadFailsStructurally(t *testing.T) {
	a := &artifact.Artifact{
		ArtifactType: artifact.TypeERD,
		Version:      "1.0.0",
		Data:         json.RawMessage(`{"entities": "not a list"}`),
	}

	result := Validate(a, nil)

	require.False(t, result.Passed)
	assert.True(t, hasCode(result.Errors, "payload_undecodable"))
}

func TestResultErr(t *testing.T) {
	erd := validERD()
	erd.Relationships[0].ForeignKey = "account_id"

	result := Validate(mustArtifact(t, artifact.TypeERD, erd), nil)
	err := result.Err()

	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeValidationFailed))

	result = Validate(mustArtifact(t, artifact.TypeERD, validERD()), nil)
	assert.NoError(t, result.Err())
}

func TestFormatListsFindings(t *testing.T) {
	erd := validERD()
	erd.Entities[0].Attributes = erd.Entities[0].Attributes[:2] // drops timestamps
	erd.Relationships[0].ForeignKey = "account_id"
	erd.Entities[1].Indexes = nil

	result := Validate(mustArtifact(t, artifact.TypeERD, erd), nil)
	out := result.Format()

	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "foreign_key_missing")
}
