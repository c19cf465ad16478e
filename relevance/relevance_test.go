package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineSpan_Overlap(t *testing.T) {
	a := LineSpan{Start: 10, End: 20}
	b := LineSpan{Start: 15, End: 25}
	assert.Equal(t, 6, a.Overlap(b))

	disjoint := LineSpan{Start: 30, End: 40}
	assert.Equal(t, 0, a.Overlap(disjoint))
}

func TestLineSpan_IoU(t *testing.T) {
	a := LineSpan{Start: 1, End: 10}
	b := LineSpan{Start: 1, End: 10}
	assert.InDelta(t, 1.0, a.IoU(b), 1e-9)

	c := LineSpan{Start: 11, End: 20}
	assert.Equal(t, 0.0, a.IoU(c))

	d := LineSpan{Start: 6, End: 15}
	// overlap 6..10 = 5 lines, union = 10+10-5 = 15
	assert.InDelta(t, 5.0/15.0, a.IoU(d), 1e-9)
}

func TestPathMatch(t *testing.T) {
	assert.True(t, PathMatch("repo/pkg/foo.go", "pkg/foo.go"))
	assert.True(t, PathMatch("repo\\pkg\\foo.go", "repo/PKG/foo.go"))
	assert.False(t, PathMatch("repo/pkg/foo.go", "kg/foo.go"))
	assert.False(t, PathMatch("", "foo.go"))
}

func TestJaccardTokens(t *testing.T) {
	assert.InDelta(t, 1.0, JaccardTokens("hello world", "world hello"), 1e-9)
	assert.Equal(t, 0.0, JaccardTokens("", ""))

	score := JaccardTokens("the cat sat", "the cat ran")
	assert.InDelta(t, 2.0/4.0, score, 1e-9)
}

func TestTokenF1(t *testing.T) {
	p, r, f1 := TokenF1("the cat sat on the mat", "the cat sat")
	assert.InDelta(t, 1.0, p, 1e-9)
	assert.InDelta(t, 0.5, r, 1e-9)
	assert.Greater(t, f1, 0.0)

	p2, r2, f2 := TokenF1("", "anything")
	assert.Equal(t, 0.0, p2)
	assert.Equal(t, 0.0, r2)
	assert.Equal(t, 0.0, f2)
}

func TestExtractDialogID_PriorityOrder(t *testing.T) {
	assert.Equal(t, "d1", ExtractDialogID(map[string]string{"dialog_id": "d1"}, "x", "chunk1", "answer"))
	assert.Equal(t, "d2", ExtractDialogID(nil, "[CTXID:d2] some content", "chunk1", "answer"))
	assert.Equal(t, "chunk1", ExtractDialogID(nil, "no marker here", "chunk1", "answer"))
	assert.Equal(t, "raw content", ExtractDialogID(nil, "raw content", "", "answer"))
	assert.Equal(t, "answer text", ExtractDialogID(nil, "", "", "answer text"))
}

func TestParseLineSpan(t *testing.T) {
	span, ok := ParseLineSpan("10-20")
	assert.True(t, ok)
	assert.Equal(t, LineSpan{Start: 10, End: 20}, span)

	single, ok := ParseLineSpan("5")
	assert.True(t, ok)
	assert.Equal(t, LineSpan{Start: 5, End: 5}, single)

	_, ok = ParseLineSpan("")
	assert.False(t, ok)

	_, ok = ParseLineSpan("abc")
	assert.False(t, ok)
}
