package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/model"
)

func TestMarshalUnmarshalJSON_RoundTrip(t *testing.T) {
	in := map[string]any{"a": 1.0, "b": "x"}
	raw, err := marshalJSON(in)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, unmarshalJSON(raw, &out))
	assert.Equal(t, in, out)
}

func TestMarshalJSON_Nil(t *testing.T) {
	raw, err := marshalJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestUnmarshalJSON_EmptyIsNoOp(t *testing.T) {
	var out map[string]any
	require.NoError(t, unmarshalJSON(nil, &out))
	assert.Nil(t, out)
}

func sampleResults() []model.EvalResult {
	return []model.EvalResult{
		{Benchmark: "longmemeval", Provider: "redis", ItemID: "1", Correct: true, Score: 1,
			Metadata: map[string]any{"questionType": "single-hop"}},
		{Benchmark: "longmemeval", Provider: "redis", ItemID: "2", Correct: false, Score: 0,
			Metadata: map[string]any{"questionType": "single-hop"}},
		{Benchmark: "longmemeval", Provider: "inmemory", ItemID: "1", Correct: true, Score: 0.5,
			Metadata: map[string]any{"questionType": "multi-hop"}},
	}
}

func TestAggregateByPair(t *testing.T) {
	agg := aggregateByPair(sampleResults())
	require.Len(t, agg, 2)

	assert.Equal(t, "inmemory", agg[0].Provider)
	assert.Equal(t, 1, agg[0].TotalItems)
	assert.InDelta(t, 1.0, agg[0].Accuracy, 1e-9)

	assert.Equal(t, "redis", agg[1].Provider)
	assert.Equal(t, 2, agg[1].TotalItems)
	assert.InDelta(t, 0.5, agg[1].Accuracy, 1e-9)
	assert.InDelta(t, 0.5, agg[1].AverageScore, 1e-9)
}

func TestAggregateByMetadataField(t *testing.T) {
	groups := aggregateByMetadataField(sampleResults(), "questionType")
	require.Len(t, groups, 2)

	byGroup := map[string]GroupAggregate{}
	for _, g := range groups {
		byGroup[g.Group] = g
	}
	assert.Equal(t, 2, byGroup["single-hop"].TotalItems)
	assert.InDelta(t, 0.5, byGroup["single-hop"].Accuracy, 1e-9)
	assert.Equal(t, 1, byGroup["multi-hop"].TotalItems)
	assert.InDelta(t, 1.0, byGroup["multi-hop"].Accuracy, 1e-9)
}

func TestAggregateByMetadataField_MissingFieldBucketsAsUnknown(t *testing.T) {
	results := []model.EvalResult{{Benchmark: "b", Provider: "p", ItemID: "1"}}
	groups := aggregateByMetadataField(results, "category")
	require.Len(t, groups, 1)
	assert.Equal(t, "unknown", groups[0].Group)
}

func TestToSet(t *testing.T) {
	assert.Nil(t, toSet(nil))
	set := toSet([]string{"a", "b"})
	assert.True(t, set["a"])
	assert.True(t, set["b"])
	assert.False(t, set["c"])
}

func TestScanResult_RoundTripsJSONColumns(t *testing.T) {
	retrieved := []model.SearchResult{{ID: "chunk-1", Content: "hello", Score: 0.9}}
	retrievedJSON, err := marshalJSON(retrieved)
	require.NoError(t, err)
	metadataJSON, err := marshalJSON(map[string]any{"questionType": "single-hop"})
	require.NoError(t, err)

	r := &fakeRow{values: []any{
		"run-1", "longmemeval", "redis", "item-1", "what?", "an answer", "an answer",
		1.0, true, retrievedJSON, metadataJSON, time.Now(),
	}}
	out, err := scanResult(r)
	require.NoError(t, err)
	assert.Equal(t, "run-1", out.RunID)
	require.Len(t, out.RetrievedContext, 1)
	assert.Equal(t, "chunk-1", out.RetrievedContext[0].ID)
	assert.Equal(t, "single-hop", out.Metadata["questionType"])
}

// fakeRow implements rowScanner by copying pre-baked values into the scan
// destinations, letting tests exercise scanResult/scanRun without a live
// database connection.
type fakeRow struct{ values []any }

func (f *fakeRow) Scan(dest ...any) error {
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = f.values[i].(string)
		case *float64:
			*d = f.values[i].(float64)
		case *bool:
			*d = f.values[i].(bool)
		case *[]byte:
			*d = f.values[i].([]byte)
		case *time.Time:
			*d = f.values[i].(time.Time)
		}
	}
	return nil
}
