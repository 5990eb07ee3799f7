package cqlvalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindTypos_WholeWordOnly(t *testing.T) {
	hits := findTypos("exsits and libary but existsNotAWord")
	require := assert.New(t)
	require.Len(hits, 2)
	require.Contains(hits[0], "exsits")
	require.Contains(hits[1], "libary")
}

func TestFindTypos_NoFalsePositiveOnSubstring(t *testing.T) {
	hits := findTypos("fasley is not the typo fasle is")
	assert.Len(t, hits, 1, "fasley should not trigger the fasle whole-word entry")
}

func TestFindTypos_CaseInsensitive(t *testing.T) {
	hits := findTypos("EXSITS")
	assert.Len(t, hits, 1)
}
