package codesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ICD-10-CM", "ICD10"},
		{"icd10cm", "ICD10"},
		{"SNOMED-CT", "SNOMED"},
		{"snomedct", "SNOMED"},
		{"CPT-4", "CPT"},
		{"rxnorm", "RxNorm"},
		{"LOINC", "LOINC"},
		{"Some Unknown System", "SOMEUNKNOWNSYSTEM"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Canonicalize(c.in), "canonicalizing %q", c.in)
	}
}

func TestMatch(t *testing.T) {
	t.Run("same code, aliased systems", func(t *testing.T) {
		assert.True(t, Match("E11.9", "ICD-10-CM", "E119", "ICD10"))
	})

	t.Run("different codes never match", func(t *testing.T) {
		assert.False(t, Match("E11.9", "ICD10", "E10.9", "ICD10"))
	})

	t.Run("same code, incompatible systems", func(t *testing.T) {
		assert.False(t, Match("99213", "CPT", "99213", "HCPCS"))
	})

	t.Run("empty system on either side is permissive", func(t *testing.T) {
		assert.True(t, Match("99213", "", "99213", "CPT"))
		assert.True(t, Match("99213", "CPT", "99213", ""))
	})

	t.Run("case and punctuation insensitive", func(t *testing.T) {
		assert.True(t, Match("e11.9", "icd-10", "E11.9", "ICD10CM"))
	})
}
