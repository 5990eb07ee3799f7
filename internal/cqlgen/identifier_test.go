package cqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "DM-SCREEN-001", "DM_SCREEN_001"},
		{"leading digit gets a guard underscore", "1abc", "_1abc"},
		{"spaces and punctuation become underscores", "my measure!", "my_measure_"},
		{"empty falls back to Measure", "", "Measure"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, sanitizeIdentifier(c.in))
		})
	}
}
