package cqlvalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanDelimiters_Balanced(t *testing.T) {
	assert.NoError(t, scanDelimiters(`exists ["Encounter": "Office Visit"] E where (E.x = 1)`))
}

func TestScanDelimiters_UnmatchedCloseParen(t *testing.T) {
	assert.Error(t, scanDelimiters("1 + 2)"))
}

func TestScanDelimiters_UnclosedParen(t *testing.T) {
	assert.Error(t, scanDelimiters("(1 + 2"))
}

func TestScanDelimiters_UnclosedBracket(t *testing.T) {
	assert.Error(t, scanDelimiters(`["Encounter"`))
}

func TestScanDelimiters_ParensInsideStringIgnored(t *testing.T) {
	assert.NoError(t, scanDelimiters(`"(unbalanced" and '(also unbalanced'`), "quoted parens never participate in matching once the quote itself is closed")
}

func TestScanDelimiters_LineCommentHidesDelimiters(t *testing.T) {
	assert.NoError(t, scanDelimiters("// a stray ( paren\ncontext Patient"))
}

func TestScanDelimiters_BlockCommentHidesDelimiters(t *testing.T) {
	assert.NoError(t, scanDelimiters("/* a stray ( paren */ context Patient"))
}

func TestScanDelimiters_UnterminatedStringIdentifier(t *testing.T) {
	assert.Error(t, scanDelimiters(`"never closed`))
}
