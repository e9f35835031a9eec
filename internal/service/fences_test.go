package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFencedBlocks_NoBlocks(t *testing.T) {
	blocks, prose := parseFencedBlocks("Just an explanation with no code.")
	assert.Empty(t, blocks)
	assert.Equal(t, "Just an explanation with no code.", prose)
}

func TestParseFencedBlocks_TwoBlocks(t *testing.T) {
	reply := "Use bcrypt for hashing.\n\n```go\nhash, _ := bcrypt.GenerateFromPassword(pw, 12)\n```\n\nNever use MD5:\n\n```go\nsum := md5.Sum(pw)\n```\n\nMD5 is broken."

	blocks, prose := parseFencedBlocks(reply)
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Lang)
	assert.Equal(t, "hash, _ := bcrypt.GenerateFromPassword(pw, 12)", blocks[0].Body)
	assert.Equal(t, "sum := md5.Sum(pw)", blocks[1].Body)
	assert.Equal(t, "Use bcrypt for hashing.\n\nNever use MD5:\n\nMD5 is broken.", prose)
}

func TestParseFencedBlocks_UnterminatedFence(t *testing.T) {
	blocks, prose := parseFencedBlocks("Intro.\n```\ncode line one\ncode line two")
	require.Len(t, blocks, 1)
	assert.Equal(t, "code line one\ncode line two", blocks[0].Body)
	assert.Equal(t, "Intro.", prose)
}

func TestParseFencedBlocks_NoLanguageTag(t *testing.T) {
	blocks, _ := parseFencedBlocks("```\nplain\n```")
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].Lang)
	assert.Equal(t, "plain", blocks[0].Body)
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"status":"COMPLIANT"}`, `{"status":"COMPLIANT"}`},
		{"json fence", "```json\n{\"status\":\"COMPLIANT\"}\n```", `{"status":"COMPLIANT"}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONFence(tt.input))
		})
	}
}
