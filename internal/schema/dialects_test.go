package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_AllDialectsRegistered(t *testing.T) {
	for _, d := range []Dialect{DialectSynapse, DialectSQLServer, DialectPostgreSQL, DialectOracle} {
		fns, err := For(d)
		require.NoError(t, err, "dialect %s", d)
		assert.Equal(t, d, fns.Dialect)
		assert.NotNil(t, fns.CurrentDate)
		assert.NotNil(t, fns.DateAdd)
		assert.NotNil(t, fns.DateDiff)
		assert.NotNil(t, fns.AgeCalculation)
		assert.NotNil(t, fns.Coalesce)
		assert.NotNil(t, fns.IIF)
	}
}

func TestFor_UnknownDialect(t *testing.T) {
	_, err := For(Dialect("db2"))
	assert.Error(t, err)
}

func TestSynapseMirrorsSQLServerDateFunctions(t *testing.T) {
	synapse, err := For(DialectSynapse)
	require.NoError(t, err)
	sqlserver, err := For(DialectSQLServer)
	require.NoError(t, err)

	assert.Equal(t, sqlserver.DateAdd(1, "year", "x"), synapse.DateAdd(1, "year", "x"))
	assert.Equal(t, sqlserver.AgeCalculation("birth", "asof"), synapse.AgeCalculation("birth", "asof"))
	assert.NotEqual(t, sqlserver.Dialect, synapse.Dialect)
}

func TestDialectFunctions_IIF(t *testing.T) {
	postgres, err := For(DialectPostgreSQL)
	require.NoError(t, err)
	assert.Equal(t, "(CASE WHEN p THEN a ELSE b END)", postgres.IIF("p", "a", "b"))

	sqlserver, err := For(DialectSQLServer)
	require.NoError(t, err)
	assert.Equal(t, "IIF(p, a, b)", sqlserver.IIF("p", "a", "b"))
}

func TestDialectFunctions_Coalesce(t *testing.T) {
	oracle, err := For(DialectOracle)
	require.NoError(t, err)
	assert.Equal(t, "COALESCE(a, b, c)", oracle.Coalesce("a", "b", "c"))
}
