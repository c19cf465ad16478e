// Package relevance implements the pure text/metadata primitives used by
// benchmark packs and metrics to decide whether a retrieved context counts
// as relevant to a question: line-span overlap, path matching, token
// (Jaccard) similarity, and dialog-id extraction. Plain functions over
// primitive slices, explicit degenerate-case handling, no hidden state.
package relevance

import (
	"regexp"
	"strconv"
	"strings"
)

// LineSpan is an inclusive [Start, End] range of source lines, 1-indexed.
type LineSpan struct {
	Start int
	End   int
}

// Overlap returns the number of lines shared between a and b.
func (a LineSpan) Overlap(b LineSpan) int {
	lo := max(a.Start, b.Start)
	hi := min(a.End, b.End)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// IoU is the intersection-over-union of a and b, 0 when both spans are
// degenerate (zero-length in both directions).
func (a LineSpan) IoU(b LineSpan) float64 {
	overlap := a.Overlap(b)
	if overlap == 0 {
		return 0
	}
	aLen := a.End - a.Start + 1
	bLen := b.End - b.Start + 1
	union := aLen + bLen - overlap
	if union <= 0 {
		return 0
	}
	return float64(overlap) / float64(union)
}

// PathMatch reports whether candidate refers to the same file as want,
// tolerating case differences, backslash/forward-slash separators, and
// candidate being a path suffix of want (or vice versa) as long as the match
// lands on a path separator boundary rather than splitting a path segment.
func PathMatch(want, candidate string) bool {
	w := normalizePath(want)
	c := normalizePath(candidate)
	if w == "" || c == "" {
		return false
	}
	if w == c {
		return true
	}
	return suffixOnBoundary(w, c) || suffixOnBoundary(c, w)
}

func normalizePath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	return strings.ReplaceAll(p, "\\", "/")
}

// suffixOnBoundary reports whether short is a path-segment-aligned suffix of
// long, e.g. "pkg/foo.go" is a valid suffix of "repo/pkg/foo.go" but
// "kg/foo.go" is not.
func suffixOnBoundary(long, short string) bool {
	if !strings.HasSuffix(long, short) {
		return false
	}
	if len(long) == len(short) {
		return true
	}
	boundaryIdx := len(long) - len(short) - 1
	return long[boundaryIdx] == '/'
}

// JaccardTokens computes the Jaccard similarity between the token sets of a
// and b (lower-cased runs of ASCII letters, digits and underscores):
// |intersection| / |union|. Returns 0 when both are empty.
func JaccardTokens(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

func tokenSet(s string) map[string]bool {
	tokens := tokenPattern.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// TokenF1 computes token-level precision/recall/F1 between an expected and
// an actual answer string, the standard QA scoring measure: precision is
// the share of actual's tokens that appear in expected, recall is the
// share of expected's tokens that appear in actual, and F1 is their
// harmonic mean. Returns all zeros when either string tokenizes to empty.
func TokenF1(expected, actual string) (precision, recall, f1 float64) {
	expTokens := tokenList(expected)
	actTokens := tokenList(actual)
	if len(expTokens) == 0 || len(actTokens) == 0 {
		return 0, 0, 0
	}

	expCounts := counts(expTokens)
	actCounts := counts(actTokens)

	overlap := 0
	for tok, n := range actCounts {
		if expN := expCounts[tok]; expN > 0 {
			if n < expN {
				overlap += n
			} else {
				overlap += expN
			}
		}
	}

	precision = float64(overlap) / float64(len(actTokens))
	recall = float64(overlap) / float64(len(expTokens))
	if precision+recall == 0 {
		return precision, recall, 0
	}
	f1 = 2 * precision * recall / (precision + recall)
	return precision, recall, f1
}

func tokenList(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

func counts(tokens []string) map[string]int {
	m := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		m[tok]++
	}
	return m
}

var ctxIDPattern = regexp.MustCompile(`\[CTXID:([^\]]+)\]`)

// ExtractDialogID resolves the dialog/session identifier a retrieved context
// belongs to, trying progressively weaker signals: explicit metadata, a
// "[CTXID:...]" prefix embedded in the content, the chunk's own id, the raw
// content itself, and finally a length-bounded prefix of the answer text as
// a last resort so callers always get a non-empty grouping key.
func ExtractDialogID(metadata map[string]string, content, chunkID, answerText string) string {
	if metadata != nil {
		if id, ok := metadata["dialog_id"]; ok && id != "" {
			return id
		}
		if id, ok := metadata["session_id"]; ok && id != "" {
			return id
		}
	}
	if m := ctxIDPattern.FindStringSubmatch(content); len(m) == 2 {
		return m[1]
	}
	if chunkID != "" {
		return chunkID
	}
	if content != "" {
		return content
	}
	const answerFallbackLen = 64
	trimmed := strings.TrimSpace(answerText)
	if len(trimmed) > answerFallbackLen {
		trimmed = trimmed[:answerFallbackLen]
	}
	return trimmed
}

// ParseLineSpan parses a "start-end" or "start" string into a LineSpan. It
// returns ok=false when s does not parse cleanly.
func ParseLineSpan(s string) (span LineSpan, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LineSpan{}, false
	}
	parts := strings.SplitN(s, "-", 2)
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return LineSpan{}, false
	}
	if len(parts) == 1 {
		return LineSpan{Start: start, End: start}, true
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return LineSpan{}, false
	}
	return LineSpan{Start: start, End: end}, true
}
