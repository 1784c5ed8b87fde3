package domain

import "strings"

// IngredientSplit separates an ingredient declaration into the base raw
// materials listed before the labeling delimiter and the additives after it
type IngredientSplit struct {
	RawMaterials []string `json:"rawMaterials"`
	Additives    []string `json:"additives"`
}

// SplitIngredients divides an ingredient declaration on the Japanese labeling
// delimiter: text before the first slash lists raw materials, text after it
// lists additives. The full-width slash takes precedence over the plain one.
// A declaration with no slash is entirely raw materials - that is defined
// behavior, not an error. This function is the single source of truth for the
// convention; prompt construction and the review endpoints all go through it.
func SplitIngredients(ingredients string) IngredientSplit {
	rawSeg, addSeg := splitOnSlash(strings.TrimSpace(ingredients))
	return IngredientSplit{
		RawMaterials: splitItems(rawSeg),
		Additives:    splitItems(addSeg),
	}
}

// splitOnSlash returns the segments strictly before and after the labeling
// delimiter. The additive segment is empty when no delimiter exists.
func splitOnSlash(s string) (string, string) {
	if i := strings.Index(s, "／"); i >= 0 {
		return s[:i], s[i+len("／"):]
	}
	if i := strings.Index(s, "/"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// splitItems splits a segment on list separators (、 ， ,) into trimmed,
// non-empty items, preserving order. Separators inside （）/() groups belong
// to the item: 着色料（カラメル、カロチノイド） is one additive, not two.
// The result is never nil, so either list marshals as a JSON array.
func splitItems(segment string) []string {
	items := []string{}
	var b strings.Builder
	depth := 0

	flush := func() {
		if item := strings.TrimSpace(b.String()); item != "" {
			items = append(items, item)
		}
		b.Reset()
	}

	for _, r := range segment {
		switch r {
		case '（', '(':
			depth++
			b.WriteRune(r)
		case '）', ')':
			if depth > 0 {
				depth--
			}
			b.WriteRune(r)
		case '、', '，', ',':
			if depth == 0 {
				flush()
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return items
}
