// Package export renders erd artifacts into executable database schemas.
package export

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/c360studio/semforge/artifact"
)

// Exporter renders erd artifacts as DDL for one SQL dialect.
type Exporter struct {
	dialect DialectInfo
}

// NewExporter creates an exporter for the named dialect.
func NewExporter(dialect Dialect) (*Exporter, error) {
	info, ok := GetDialectInfo(dialect)
	if !ok {
		return nil, artifact.NewError(artifact.CodeValidationFailed,
			"no SQL dialect for database_type %q", dialect).
			WithDetails("supported: " + strings.Join(DialectNames(), ", "))
	}
	return &Exporter{dialect: info}, nil
}

// SQL renders the erd artifact as DDL for its declared database type,
// defaulting to postgres when the erd does not name one.
func SQL(a *artifact.Artifact) (string, error) {
	erd, err := a.ERD()
	if err != nil {
		return "", err
	}
	dialect := DialectPostgres
	if erd.DatabaseType != "" {
		dialect = Dialect(erd.DatabaseType)
	}
	e, err := NewExporter(dialect)
	if err != nil {
		return "", err
	}
	return e.render(a, erd), nil
}

// Export renders the erd artifact with this exporter's dialect, regardless
// of the erd's declared database_type.
func (e *Exporter) Export(a *artifact.Artifact) (string, error) {
	erd, err := a.ERD()
	if err != nil {
		return "", err
	}
	return e.render(a, erd), nil
}

// render assembles the schema: tables in declaration order, then declared
// indexes, then foreign-key coverage indexes, then relationship constraints.
// Constraints come last so declaration order never breaks a reference.
func (e *Exporter) render(a *artifact.Artifact, erd *artifact.ERD) string {
	parts := []string{
		fmt.Sprintf("-- Generated schema for %s", erd.ProjectName),
		fmt.Sprintf("-- Database type: %s", e.dialect.Name),
		fmt.Sprintf("-- Generated at: %s", a.CreatedAt.UTC().Format(time.RFC3339)),
		"",
	}

	for i := range erd.Entities {
		parts = append(parts, e.tableDDL(&erd.Entities[i]), "")
	}
	for i := range erd.Entities {
		ent := &erd.Entities[i]
		for _, idx := range ent.Indexes {
			parts = append(parts, indexDDL(tableName(ent), idx))
		}
	}
	parts = append(parts, foreignKeyIndexes(erd)...)
	for _, rel := range erd.Relationships {
		parts = append(parts, foreignKeyDDL(erd, rel))
	}

	return strings.TrimRight(strings.Join(parts, "\n"), "\n") + "\n"
}

// tableDDL renders one CREATE TABLE statement, columns in declared order.
func (e *Exporter) tableDDL(ent *artifact.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", tableName(ent))
	for i := range ent.Attributes {
		b.WriteString("    " + e.columnDef(&ent.Attributes[i]))
		if i < len(ent.Attributes)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

// columnDef renders a column with its constraints. Columns are NOT NULL
// unless the attribute is declared nullable; PRIMARY KEY already implies it.
func (e *Exporter) columnDef(attr *artifact.Attribute) string {
	def := attr.Name + " " + e.dialect.ColumnType(attr.Type)
	if attr.PrimaryKey {
		def += " PRIMARY KEY"
	}
	if !attr.Nullable && !attr.PrimaryKey {
		def += " NOT NULL"
	}
	if attr.Unique {
		def += " UNIQUE"
	}
	if attr.Default != "" {
		def += " DEFAULT " + attr.Default
	}
	return def
}

func indexDDL(table string, idx artifact.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		unique, idx.Name, table, strings.Join(idx.Columns, ", "))
}

// foreignKeyIndexes covers each relationship's foreign key with an index
// when no declared index already does, the same coverage rule the validator
// uses for its suggestions.
func foreignKeyIndexes(erd *artifact.ERD) []string {
	var stmts []string
	seen := map[string]bool{}
	for _, rel := range erd.Relationships {
		child, ok := erd.Entity(rel.FromEntity)
		if !ok || rel.ForeignKey == "" || indexed(child, rel.ForeignKey) {
			continue
		}
		table := tableName(child)
		name := fmt.Sprintf("idx_%s_%s", table, rel.ForeignKey)
		if seen[name] {
			continue
		}
		seen[name] = true
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s (%s);", name, table, rel.ForeignKey))
	}
	return stmts
}

func indexed(ent *artifact.Entity, column string) bool {
	for _, idx := range ent.Indexes {
		if slices.Contains(idx.Columns, column) {
			return true
		}
	}
	return false
}

// foreignKeyDDL renders one relationship as an ALTER TABLE constraint. The
// referenced column is the parent's declared primary key, falling back to id.
func foreignKeyDDL(erd *artifact.ERD, rel artifact.Relationship) string {
	child, okFrom := erd.Entity(rel.FromEntity)
	parent, okTo := erd.Entity(rel.ToEntity)
	if !okFrom || !okTo {
		return fmt.Sprintf("-- relationship %s references a missing entity", rel.ID)
	}

	pk := "id"
	if attr, ok := parent.PrimaryKey(); ok {
		pk = attr.Name
	}
	cascade := ""
	if rel.CascadeDelete {
		cascade = " ON DELETE CASCADE"
	}
	return fmt.Sprintf("ALTER TABLE %s ADD FOREIGN KEY (%s) REFERENCES %s(%s)%s;",
		tableName(child), rel.ForeignKey, tableName(parent), pk, cascade)
}

// tableName is the entity's physical name, defaulting to a snake_case Name.
func tableName(ent *artifact.Entity) string {
	if ent.TableName != "" {
		return ent.TableName
	}
	return snakeCase(ent.Name)
}

func snakeCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		switch {
		case r == ' ' || r == '-':
			r = '_'
			b.WriteRune(r)
		case unicode.IsUpper(r):
			if i > 0 && !unicode.IsUpper(prev) && prev != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
