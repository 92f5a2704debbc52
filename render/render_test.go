package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/artifact"
)

func TestSubstitution(t *testing.T) {
	out, err := Render("# {{PROJECT_NAME}}\n\nby {{AUTHOR}}\n",
		map[string]string{"PROJECT_NAME": "acme-shop", "AUTHOR": "platform team"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "# acme-shop\n\nby platform team\n", out)
}

func TestUndefinedVariableListsAllMissing(t *testing.T) {
	_, err := Render("{{A}} {{B}} {{A}} {{C}}", map[string]string{"B": "x"}, nil)
	require.Error(t, err)

	var pe *artifact.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, artifact.CodeUndefinedVariable, pe.Code)
	assert.Equal(t, []string{"A", "C"}, pe.Details, "every missing binding reported once, sorted")
}

func TestConditionalKeepsTrueBlock(t *testing.T) {
	template := strings.Join([]string{
		"services:",
		"<!-- IF:DATABASE=postgres -->",
		"  db: postgres:16",
		"<!-- END:IF -->",
		"  app: node:20",
		"",
	}, "\n")

	out, err := Render(template, map[string]string{"DATABASE": "postgres"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "services:\n  db: postgres:16\n  app: node:20\n", out)
}

func TestConditionalRemovesFalseBlock(t *testing.T) {
	template := strings.Join([]string{
		"services:",
		"<!-- IF:DATABASE=postgres -->",
		"  db: postgres:16",
		"<!-- END:IF -->",
		"  app: node:20",
		"",
	}, "\n")

	out, err := Render(template, map[string]string{"DATABASE": "mongodb"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "services:\n  app: node:20\n", out)
	assert.NotContains(t, out, "postgres")
}

func TestConditionalWithFlags(t *testing.T) {
	template := "start\n<!-- IF:CI=true -->\nci job\n<!-- END:IF -->\nend\n"

	withCI, err := Render(template, nil, map[string]bool{"CI": true})
	require.NoError(t, err)
	assert.Equal(t, "start\nci job\nend\n", withCI)

	withoutCI, err := Render(template, nil, map[string]bool{"CI": false})
	require.NoError(t, err)
	assert.Equal(t, "start\nend\n", withoutCI)
}

func TestNestedConditionals(t *testing.T) {
	template := strings.Join([]string{
		"<!-- IF:DATABASE!=none -->",
		"db config",
		"<!-- IF:DATABASE=postgres -->",
		"postgres tuning",
		"<!-- END:IF -->",
		"db end",
		"<!-- END:IF -->",
		"tail",
		"",
	}, "\n")

	out, err := Render(template, map[string]string{"DATABASE": "postgres"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "db config\npostgres tuning\ndb end\ntail\n", out)

	out, err = Render(template, map[string]string{"DATABASE": "mysql"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "db config\ndb end\ntail\n", out)

	out, err = Render(template, map[string]string{"DATABASE": "none"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tail\n", out)
}

func TestInlineMarkersStripExactly(t *testing.T) {
	out, err := Render("a <!-- IF:X=1 -->kept<!-- END:IF --> b", map[string]string{"X": "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a kept b", out)

	out, err = Render("a <!-- IF:X=1 -->dropped<!-- END:IF --> b", map[string]string{"X": "2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a  b", out)
}

func TestUnmatchedMarkersFail(t *testing.T) {
	_, err := Render("<!-- IF:X=1 -->\nno end\n", map[string]string{"X": "1"}, nil)
	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeMalformedTemplate))

	_, err = Render("no start\n<!-- END:IF -->\n", nil, nil)
	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeMalformedTemplate))
}

func TestMalformedConditionFails(t *testing.T) {
	_, err := Render("<!-- IF:DATABASE -->\nx\n<!-- END:IF -->\n", nil, nil)
	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeMalformedTemplate))
}

func TestNoMarkerSurvives(t *testing.T) {
	template := strings.Join([]string{
		"<!-- IF:A=1 -->",
		"one",
		"<!-- END:IF -->",
		"<!-- IF:B=1|C=1 -->",
		"two",
		"<!-- END:IF -->",
		"done",
		"",
	}, "\n")

	for _, vars := range []map[string]string{
		{"A": "1", "B": "1", "C": "0"},
		{"A": "0", "B": "0", "C": "0"},
		{"A": "1", "B": "0", "C": "1"},
	} {
		out, err := Render(template, vars, nil)
		require.NoError(t, err)
		assert.NotContains(t, out, "<!-- IF:")
		assert.NotContains(t, out, "END:IF")
	}
}

func TestRenderIsReferentiallyTransparent(t *testing.T) {
	template := "{{NAME}}\n<!-- IF:DATABASE=postgres,CI=true -->\npipeline\n<!-- END:IF -->\n"
	vars := map[string]string{"NAME": "acme", "DATABASE": "postgres"}
	flags := map[string]bool{"CI": true}

	first, err := Render(template, vars, flags)
	require.NoError(t, err)
	second, err := Render(template, vars, flags)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical inputs must give byte-identical output")
}

func TestSubstitutionRunsBeforeConditionals(t *testing.T) {
	// Pass order is fixed: placeholders inside a block that will be
	// removed still need bindings.
	template := "<!-- IF:X=0 -->\n{{MISSING}}\n<!-- END:IF -->\n"
	_, err := Render(template, map[string]string{"X": "1"}, nil)
	require.Error(t, err)
	assert.True(t, artifact.IsCode(err, artifact.CodeUndefinedVariable))
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, Validate("{{A}}\n<!-- IF:K=v -->\nok\n<!-- END:IF -->\n"))
	assert.Error(t, Validate("<!-- IF:K=v -->\nnever closed\n"))
}
