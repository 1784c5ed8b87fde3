package gemini

import (
	"testing"

	"github.com/exportlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildUserQuery(t *testing.T) {
	query := BuildUserQuery("ぶり照り焼き", "ぶり、しょうゆ、粗糖／増粘剤（加工デンプン）、調味料（アミノ酸等）")

	assert.Contains(t, query, "商品名 (Product name): ぶり照り焼き")
	assert.Contains(t, query, "原材料 (Raw materials):\n- ぶり\n- しょうゆ\n- 粗糖\n")
	assert.Contains(t, query, "添加物 (Additives):\n- 増粘剤（加工デンプン）\n- 調味料（アミノ酸等）\n")
	assert.Contains(t, query, "原材料表示の原文 (Original declaration):\nぶり、しょうゆ、粗糖／増粘剤（加工デンプン）、調味料（アミノ酸等）\n")
}

func TestBuildUserQuery_NoAdditives(t *testing.T) {
	query := BuildUserQuery("焼き芋", "さつまいも")

	assert.Contains(t, query, "- さつまいも\n")
	assert.Contains(t, query, "添加物 (Additives):\n- なし (none)\n")
}

func TestBuildUserQuery_Deterministic(t *testing.T) {
	first := BuildUserQuery("ぶり照り焼き", "ぶり、しょうゆ")
	second := BuildUserQuery("ぶり照り焼き", "ぶり、しょうゆ")

	assert.Equal(t, first, second)
}

// The instruction text and the parser agree on the reply format; this pins
// the pieces the parser anchors on.
func TestSystemInstruction_FormatContract(t *testing.T) {
	assert.Contains(t, systemInstruction, "VERDICT:")
	assert.Contains(t, systemInstruction, "ENGLISH:")
	assert.Contains(t, systemInstruction, "JAPANESE（日本語）:")
	assert.Contains(t, systemInstruction, domain.VerdictOK)
	assert.Contains(t, systemInstruction, domain.VerdictConditional)
	assert.Contains(t, systemInstruction, domain.VerdictNotOK)
}

// Verification is confined to the designated sources and an unverifiable
// item hardens the verdict instead of softening it; this pins those clauses.
func TestSystemInstruction_SourcePolicy(t *testing.T) {
	assert.Contains(t, systemInstruction, "designated sources only")
	assert.Contains(t, systemInstruction, "do not rely on results from any other site")
	assert.Contains(t, systemInstruction,
		`any additive code or import restriction cannot be resolved from the designated sources, the verdict is "Export NOT OK"`)
	assert.NotContains(t, systemInstruction, "preferring")
	assert.NotContains(t, systemInstruction, "lean toward")
}
