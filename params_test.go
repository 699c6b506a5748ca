package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamedParams_NoNamedParams(t *testing.T) {
	assert.Nil(t, ParseNamedParams("SELECT * FROM t WHERE id = ?"))
	assert.Nil(t, ParseNamedParams(""))
}

func TestParseNamedParams_ColonStyle(t *testing.T) {
	np := ParseNamedParams("SELECT * FROM t WHERE id = :id AND name = :name")
	require.NotNil(t, np)
	assert.Equal(t, "SELECT * FROM t WHERE id = ? AND name = ?", np.Query)
	assert.Equal(t, []string{"id", "name"}, np.Names)
	assert.Equal(t, []int{1}, np.Positions["id"])
	assert.Equal(t, []int{2}, np.Positions["name"])
}

func TestParseNamedParams_RepeatedName(t *testing.T) {
	np := ParseNamedParams("SELECT * FROM t WHERE a = :x OR b = :x")
	require.NotNil(t, np)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ?", np.Query)
	assert.Equal(t, []string{"x"}, np.Names)
	assert.Equal(t, []int{1, 2}, np.Positions["x"])
}

func TestParseNamedParams_AtAndDollarStyle(t *testing.T) {
	np := ParseNamedParams("UPDATE t SET v = @val WHERE id = $key")
	require.NotNil(t, np)
	assert.Equal(t, "UPDATE t SET v = ? WHERE id = ?", np.Query)
	assert.Equal(t, []string{"val", "key"}, np.Names)
}

func TestParseNamedParams_IgnoresStringLiterals(t *testing.T) {
	np := ParseNamedParams("SELECT * FROM t WHERE name = ':not_a_param' AND id = :id")
	require.NotNil(t, np)
	assert.Equal(t, []string{"id"}, np.Names)
	assert.Equal(t, "SELECT * FROM t WHERE name = ':not_a_param' AND id = ?", np.Query)
}

func TestParseNamedParams_IgnoresQuotedIdentifiers(t *testing.T) {
	np := ParseNamedParams(`SELECT "col:name" AS c FROM t WHERE id = :id`)
	require.NotNil(t, np)
	assert.Equal(t, []string{"id"}, np.Names)
}

func TestParseNamedParams_IgnoresLineComment(t *testing.T) {
	np := ParseNamedParams("SELECT * FROM t -- :fake comment\nWHERE id = :id")
	require.NotNil(t, np)
	assert.Equal(t, []string{"id"}, np.Names)
}

func TestParseNamedParams_IgnoresBlockComment(t *testing.T) {
	np := ParseNamedParams("SELECT * FROM t /* :fake */ WHERE id = :id")
	require.NotNil(t, np)
	assert.Equal(t, []string{"id"}, np.Names)
}

func TestParameterError_Error(t *testing.T) {
	err := &ParameterError{Name: "id", Message: "out of range"}
	assert.Equal(t, "parameter 'id': out of range", err.Error())

	err = &ParameterError{Message: "missing value"}
	assert.Equal(t, "parameter: missing value", err.Error())
}
