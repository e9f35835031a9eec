package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChunk() Chunk {
	return Chunk{
		ID:          "c1",
		Content:     "Always hash passwords with bcrypt.",
		Index:       0,
		TotalChunks: 1,
		TokenCount:  8,
		Language:    "all",
		Category:    "password_hashing",
		Type:        PracticeTypeSecure,
		Severity:    SeverityWarning,
		Source:      "policy.md",
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Chunk)
		wantErr bool
	}{
		{"valid", func(c *Chunk) {}, false},
		{"empty content", func(c *Chunk) { c.Content = "" }, true},
		{"negative index", func(c *Chunk) { c.Index = -1 }, true},
		{"zero total", func(c *Chunk) { c.TotalChunks = 0 }, true},
		{"index out of range", func(c *Chunk) { c.Index = 3; c.TotalChunks = 3 }, true},
		{"missing source", func(c *Chunk) { c.Source = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChunk()
			tt.mutate(&c)
			err := ValidateChunk(&c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateChunk_Nil(t *testing.T) {
	assert.Error(t, ValidateChunk(nil))
}

func TestValidateEmbeddedChunk_DimensionMismatch(t *testing.T) {
	ec := EmbeddedChunk{Chunk: validChunk(), Embedding: make([]float32, 8)}

	err := ValidateEmbeddedChunk(&ec, 8)
	require.NoError(t, err)

	err = ValidateEmbeddedChunk(&ec, 1536)
	require.Error(t, err)
	domainErr, ok := err.(*DomainError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeDimensionMismatch, domainErr.Code)
}

func TestRetrievalFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter RetrievalFilter
		chunk  Chunk
		want   bool
	}{
		{"empty filter matches everything", RetrievalFilter{}, Chunk{Language: "go", Category: "jwt"}, true},
		{"language match", RetrievalFilter{Language: "go"}, Chunk{Language: "go"}, true},
		{"language mismatch", RetrievalFilter{Language: "go"}, Chunk{Language: "python"}, false},
		{"stored all satisfies any language", RetrievalFilter{Language: "python"}, Chunk{Language: LanguageAll}, true},
		{"requested all disables the language constraint", RetrievalFilter{Language: LanguageAll}, Chunk{Language: "javascript"}, true},
		{"requested all still applies category", RetrievalFilter{Language: LanguageAll, Category: "jwt"}, Chunk{Language: "go", Category: "encryption"}, false},
		{"category match", RetrievalFilter{Category: "jwt"}, Chunk{Category: "jwt"}, true},
		{"category mismatch", RetrievalFilter{Category: "jwt"}, Chunk{Category: "encryption"}, false},
		{"both fields must match", RetrievalFilter{Language: "go", Category: "jwt"}, Chunk{Language: "go", Category: "general"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(&tt.chunk))
		})
	}
}

func TestNormalizeVerdictStatus(t *testing.T) {
	assert.Equal(t, VerdictCompliant, NormalizeVerdictStatus("COMPLIANT"))
	assert.Equal(t, VerdictPartiallyCompliant, NormalizeVerdictStatus("PARTIALLY_COMPLIANT"))
	assert.Equal(t, VerdictNonCompliant, NormalizeVerdictStatus("NON_COMPLIANT"))
	assert.Equal(t, VerdictUnknown, NormalizeVerdictStatus("compliant"))
	assert.Equal(t, VerdictUnknown, NormalizeVerdictStatus("garbage"))
	assert.Equal(t, VerdictUnknown, NormalizeVerdictStatus(""))
}

func TestNormalizeRiskLevel(t *testing.T) {
	assert.Equal(t, RiskLow, NormalizeRiskLevel("LOW"))
	assert.Equal(t, RiskHigh, NormalizeRiskLevel("HIGH"))
	assert.Equal(t, RiskMedium, NormalizeRiskLevel("medium"))
	assert.Equal(t, RiskMedium, NormalizeRiskLevel(""))
}
