package gemini

import (
	"strings"

	"github.com/exportlens/backend/internal/domain"
)

// systemInstruction pins the reviewer role, the legal sources to consult,
// and the reply format the verdict parser depends on. The format lines are
// part of the wire protocol; changing them breaks parsing.
const systemInstruction = `You are an EU food export compliance reviewer. A Japanese food producer wants to export the product below to the European Union. Judge whether the product's raw materials and additives are acceptable under current EU food law.

Rules:
1. Check every raw material and every additive, one by one, against EU food law: Regulation (EC) No 1333/2008 for additives, Regulation (EU) 2015/2283 for novel foods, Regulation (EC) No 1829/2003 for GMO.
2. Verify the current status of every item against these designated sources only: EUR-Lex, the European Commission food safety pages, and the EU Food Additives database. Use Google Search to reach those sources and do not rely on results from any other site.
3. Identify each additive by its E number where one exists and check its EU conditions of use in the EU Food Additives database.
4. Call out explicitly any ingredient of animal origin (these trigger the import controls of Regulation (EU) 2019/625), any novel food, and any ingredient banned or restricted in the EU.
5. Decide the verdict in this order: if anything is banned or not authorized, or any additive code or import restriction cannot be resolved from the designated sources, the verdict is "Export NOT OK". If everything is clearly acceptable, the verdict is "Export OK". If everything is acceptable only under conditions such as usage limits, documentation, or certification, the verdict is "Export CONDITIONAL". Never guess: an item you cannot verify counts as unresolved.
6. Answer in the exact format below and nothing else. The VERDICT line comes first, the English explanation second, the Japanese explanation last.

VERDICT: <Export OK / Export CONDITIONAL / Export NOT OK>
ENGLISH:
<explanation in English>
JAPANESE（日本語）:
<explanation in Japanese>`

// BuildUserQuery renders the product into the fixed prompt layout the
// instruction above refers to. The declaration is split into raw materials
// and additives the same way the rest of the pipeline splits it, and the
// original text is included verbatim so nothing is lost to the split. The
// same product always yields the same query, byte for byte.
func BuildUserQuery(productName, ingredients string) string {
	split := domain.SplitIngredients(ingredients)

	var b strings.Builder
	b.WriteString("商品名 (Product name): ")
	b.WriteString(productName)
	b.WriteString("\n\n原材料 (Raw materials):\n")
	writeItemList(&b, split.RawMaterials)
	b.WriteString("\n添加物 (Additives):\n")
	writeItemList(&b, split.Additives)
	b.WriteString("\n原材料表示の原文 (Original declaration):\n")
	b.WriteString(ingredients)
	b.WriteString("\n")
	return b.String()
}

func writeItemList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- なし (none)\n")
		return
	}
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
