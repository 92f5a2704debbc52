package export_test

import (
	"strings"
	"testing"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/export"
)

func newERD() *artifact.ERD {
	return &artifact.ERD{
		ProjectName:  "storefront",
		DatabaseType: "postgres",
		Entities: []artifact.Entity{
			{
				ID: "ENT-001", Name: "User", TableName: "users",
				Attributes: []artifact.Attribute{
					{Name: "id", Type: "UUID", PrimaryKey: true},
					{Name: "email", Type: "STRING", Unique: true},
					{Name: "display_name", Type: "STRING", Nullable: true},
					{Name: "created_at", Type: "DATETIME", Default: "now()"},
				},
				Indexes: []artifact.Index{
					{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
				},
			},
			{
				ID: "ENT-002", Name: "OrderItem",
				Attributes: []artifact.Attribute{
					{Name: "id", Type: "UUID", PrimaryKey: true},
					{Name: "user_id", Type: "UUID"},
					{Name: "quantity", Type: "INTEGER", Default: "1"},
					{Name: "unit_price", Type: "DECIMAL"},
					{Name: "metadata", Type: "JSON", Nullable: true},
				},
			},
		},
		Relationships: []artifact.Relationship{
			{ID: "REL-001", FromEntity: "ENT-002", ToEntity: "ENT-001",
				Type: artifact.OneToMany, ForeignKey: "user_id", CascadeDelete: true},
		},
	}
}

func erdArtifact(t *testing.T, erd *artifact.ERD) *artifact.Artifact {
	t.Helper()
	a, err := artifact.New(artifact.TypeERD, "1.0.0", erd)
	if err != nil {
		t.Fatalf("build erd artifact: %v", err)
	}
	return a
}

func TestSQLGeneratesTables(t *testing.T) {
	out, err := export.SQL(erdArtifact(t, newERD()))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}

	for _, want := range []string{
		"CREATE TABLE users (",
		"id UUID PRIMARY KEY",
		"email VARCHAR(255) NOT NULL UNIQUE",
		"created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()",
		"CREATE TABLE order_item (",
		"quantity INTEGER NOT NULL DEFAULT 1",
		"unit_price NUMERIC NOT NULL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Primary keys and nullable columns do not carry NOT NULL.
	if strings.Contains(out, "PRIMARY KEY NOT NULL") {
		t.Error("primary key columns should not repeat NOT NULL")
	}
	if strings.Contains(out, "display_name VARCHAR(255) NOT NULL") {
		t.Error("nullable column should not render NOT NULL")
	}
	if strings.Contains(out, "metadata JSONB NOT NULL") {
		t.Error("nullable json column should not render NOT NULL")
	}
}

func TestSQLHeader(t *testing.T) {
	out, err := export.SQL(erdArtifact(t, newERD()))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}

	if !strings.Contains(out, "-- Generated schema for storefront") {
		t.Error("output should name the project")
	}
	if !strings.Contains(out, "-- Database type: postgres") {
		t.Error("output should name the database type")
	}
	if !strings.Contains(out, "-- Generated at: 20") {
		t.Error("output should carry the artifact timestamp")
	}
}

func TestSQLDeclaredIndexes(t *testing.T) {
	out, err := export.SQL(erdArtifact(t, newERD()))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}

	if !strings.Contains(out, "CREATE UNIQUE INDEX idx_users_email ON users (email);") {
		t.Error("declared unique index missing")
	}
}

func TestSQLCoversUnindexedForeignKeys(t *testing.T) {
	out, err := export.SQL(erdArtifact(t, newERD()))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}
	if !strings.Contains(out, "CREATE INDEX idx_order_item_user_id ON order_item (user_id);") {
		t.Errorf("foreign key should get a coverage index:\n%s", out)
	}

	// A declared index on the foreign key suppresses the generated one.
	erd := newERD()
	erd.Entities[1].Indexes = []artifact.Index{
		{Name: "idx_items_user", Columns: []string{"user_id"}},
	}
	out, err = export.SQL(erdArtifact(t, erd))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}
	if strings.Contains(out, "idx_order_item_user_id") {
		t.Error("declared index should suppress the generated coverage index")
	}
	if !strings.Contains(out, "CREATE INDEX idx_items_user ON order_item (user_id);") {
		t.Error("declared index missing")
	}
}

func TestSQLForeignKeys(t *testing.T) {
	out, err := export.SQL(erdArtifact(t, newERD()))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}

	want := "ALTER TABLE order_item ADD FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE;"
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
}

func TestSQLForeignKeyTargetsParentPrimaryKey(t *testing.T) {
	erd := newERD()
	erd.Entities[0].Attributes[0].Name = "user_uuid"

	out, err := export.SQL(erdArtifact(t, erd))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}
	if !strings.Contains(out, "REFERENCES users(user_uuid)") {
		t.Errorf("constraint should reference the declared primary key:\n%s", out)
	}
}

func TestSQLMissingRelationshipEntity(t *testing.T) {
	erd := newERD()
	erd.Relationships = append(erd.Relationships, artifact.Relationship{
		ID: "REL-002", FromEntity: "ENT-002", ToEntity: "ENT-999",
		Type: artifact.OneToMany, ForeignKey: "user_id",
	})

	out, err := export.SQL(erdArtifact(t, erd))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}
	if !strings.Contains(out, "-- relationship REL-002 references a missing entity") {
		t.Error("dangling relationship should render as a comment, not a constraint")
	}
}

func TestSQLUnknownDatabaseType(t *testing.T) {
	erd := newERD()
	erd.DatabaseType = "mongodb"

	_, err := export.SQL(erdArtifact(t, erd))
	if err == nil {
		t.Fatal("expected an error for a database type with no SQL dialect")
	}
	if !artifact.IsCode(err, artifact.CodeValidationFailed) {
		t.Errorf("expected VALIDATION_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "mongodb") || !strings.Contains(err.Error(), "postgres") {
		t.Errorf("error should name the bad type and the supported dialects: %v", err)
	}
}

func TestSQLDefaultsToPostgres(t *testing.T) {
	erd := newERD()
	erd.DatabaseType = ""

	out, err := export.SQL(erdArtifact(t, erd))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}
	if !strings.Contains(out, "-- Database type: postgres") {
		t.Error("empty database_type should default to postgres")
	}
}

func TestExporterOverridesDeclaredDatabaseType(t *testing.T) {
	e, err := export.NewExporter(export.DialectPostgres)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	erd := newERD()
	erd.DatabaseType = "mysql"
	out, err := e.Export(erdArtifact(t, erd))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(out, "CREATE TABLE users (") {
		t.Error("explicit dialect should render regardless of database_type")
	}
}

func TestSQLPassesUnmappedTypesThrough(t *testing.T) {
	erd := newERD()
	erd.Entities[0].Attributes = append(erd.Entities[0].Attributes,
		artifact.Attribute{Name: "short_code", Type: "VARCHAR(8)", Nullable: true})

	out, err := export.SQL(erdArtifact(t, erd))
	if err != nil {
		t.Fatalf("SQL failed: %v", err)
	}
	if !strings.Contains(out, "short_code VARCHAR(8)") {
		t.Error("unmapped attribute type should pass through unchanged")
	}
}

func TestSQLRejectsWrongArtifactType(t *testing.T) {
	a, err := artifact.New(artifact.TypePRD, "1.0.0", &artifact.PRD{ProjectName: "storefront"})
	if err != nil {
		t.Fatalf("build prd artifact: %v", err)
	}
	if _, err := export.SQL(a); err == nil {
		t.Error("expected an error for a non-erd artifact")
	}
}
