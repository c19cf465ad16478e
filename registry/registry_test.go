package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_StrictConflict(t *testing.T) {
	r := New[int]("metrics")
	require.NoError(t, r.Register("ndcg", 1, true, "NDCG"))

	err := r.Register("ndcg", 2, true)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	err = r.Register("precision", 3, true, "NDCG")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestRegister_LenientFirstWins(t *testing.T) {
	r := New[int]("metrics")
	require.NoError(t, r.Register("ndcg", 1, false))
	require.NoError(t, r.Register("ndcg", 2, false))

	v, ok := r.Get("ndcg")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestGet_AliasResolution(t *testing.T) {
	r := New[string]("packs")
	require.NoError(t, r.Register("longmemeval@v1", "pack-a", true, "lme", "longmem"))

	v, ok := r.Get("lme")
	require.True(t, ok)
	assert.Equal(t, "pack-a", v)

	v, ok = r.Get("longmem")
	require.True(t, ok)
	assert.Equal(t, "pack-a", v)

	assert.True(t, r.Has("lme"))
	assert.True(t, r.Has("longmemeval@v1"))
	assert.False(t, r.Has("unknown"))
}

func TestGetOrError_NotFound(t *testing.T) {
	r := New[string]("evaluators")
	require.NoError(t, r.Register("exact", "impl", true))

	_, err := r.GetOrError("fuzzy")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{"exact"}, rerr.AvailableKeys)
}

func TestDelete_RemovesAliasesNotKeyless(t *testing.T) {
	r := New[int]("loaders")
	require.NoError(t, r.Register("locomo", 1, true, "loco"))

	r.Delete("loco") // deleting an alias name is a no-op
	assert.True(t, r.Has("locomo"))
	assert.True(t, r.Has("loco"))

	r.Delete("locomo")
	assert.False(t, r.Has("locomo"))
	assert.False(t, r.Has("loco"))
}

func TestKeys_SortedPrimariesOnly(t *testing.T) {
	r := New[int]("metrics")
	require.NoError(t, r.Register("zeta", 1, true))
	require.NoError(t, r.Register("alpha", 2, true, "a"))

	assert.Equal(t, []string{"alpha", "zeta"}, r.Keys())
}

func TestResolveAlias_IdempotentAndIdentityForUnknown(t *testing.T) {
	r := New[int]("metrics")
	require.NoError(t, r.Register("ndcg", 1, true, "NDCG"))

	assert.Equal(t, "ndcg", r.ResolveAlias("NDCG"))
	assert.Equal(t, "ndcg", r.ResolveAlias(r.ResolveAlias("NDCG")))
	assert.Equal(t, "unknown", r.ResolveAlias("unknown"))
}

func TestSize_CountsPrimariesOnly(t *testing.T) {
	r := New[int]("metrics")
	require.NoError(t, r.Register("a", 1, true, "alias-a"))
	require.NoError(t, r.Register("b", 2, true))
	assert.Equal(t, 2, r.Size())
}
