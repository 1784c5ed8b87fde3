package usecase

import (
	"regexp"
	"strings"

	"github.com/exportlens/backend/internal/domain"
)

// Placeholders substituted when the reply omits a language block. A missing
// explanation is recoverable; a missing verdict line is not.
const (
	MissingEnglishReason  = "No English explanation provided."
	MissingJapaneseReason = "日本語の説明はありませんでした。"
)

// The verdict marker must start a line and is matched case-sensitively. The
// explanation markers tolerate decorated forms such as "ENGLISH (English):"
// or "JAPANESE（日本語）:" by allowing anything but a colon or newline
// between the keyword and the colon.
var (
	verdictLineRegex    = regexp.MustCompile(`(?m)^VERDICT:(.*)$`)
	englishMarkerRegex  = regexp.MustCompile(`(?m)^ENGLISH[^:\n]*:`)
	japaneseMarkerRegex = regexp.MustCompile(`(?m)^JAPANESE[^:\n]*:`)
)

// ParseVerdict converts the reasoning model's free-text reply into a typed
// result. The reply is untrusted: the only hard requirement is the VERDICT
// line. Each explanation block runs from its marker to the next marker or
// the end of the reply, and is replaced by its placeholder when absent.
// RawResponse keeps the unmodified reply so a result can be re-parsed or
// audited later.
func ParseVerdict(raw string) (*domain.AnalysisResult, error) {
	m := verdictLineRegex.FindStringSubmatch(raw)
	if m == nil {
		return nil, domain.ErrVerdictFormat
	}

	result := &domain.AnalysisResult{
		Verdict:        strings.TrimSpace(m[1]),
		EnglishReason:  MissingEnglishReason,
		JapaneseReason: MissingJapaneseReason,
		RawResponse:    raw,
	}

	eLoc := englishMarkerRegex.FindStringIndex(raw)
	jLoc := japaneseMarkerRegex.FindStringIndex(raw)

	if eLoc != nil {
		end := len(raw)
		if jLoc != nil && jLoc[0] >= eLoc[1] {
			end = jLoc[0]
		}
		if text := strings.TrimSpace(raw[eLoc[1]:end]); text != "" {
			result.EnglishReason = text
		}
	}
	if jLoc != nil {
		end := len(raw)
		if eLoc != nil && eLoc[0] >= jLoc[1] {
			end = eLoc[0]
		}
		if text := strings.TrimSpace(raw[jLoc[1]:end]); text != "" {
			result.JapaneseReason = text
		}
	}

	return result, nil
}
