package domain

// Verdict labels the reasoning service is instructed to emit. The verdict is
// carried as display text rather than an enum because the upstream wording is
// not perfectly controlled; these constants are the canonical three-way set.
const (
	VerdictOK          = "Export OK"
	VerdictConditional = "Export CONDITIONAL"
	VerdictNotOK       = "Export NOT OK"
)

// AnalysisResult represents the parsed compliance verdict for one product.
// It is constructed once per analysis call and immutable thereafter.
type AnalysisResult struct {
	Verdict        string `json:"verdict"`
	EnglishReason  string `json:"englishReason"`
	JapaneseReason string `json:"japaneseReason"`
	RawResponse    string `json:"rawResponse"` // unmodified service reply, kept for debugging and re-parsing
}

// AnalyzeRequest represents a compliance analysis request. Ingredients may be
// extractor output or externally edited text; both are treated identically.
type AnalyzeRequest struct {
	ProductName string `json:"productName" binding:"required"`
	Ingredients string `json:"ingredients" binding:"required"`
	APIKey      string `json:"apiKey,omitempty"` // per-call credential, never stored
}
