package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flondb/redisd/internal/clock"
	"github.com/flondb/redisd/internal/streams"
)

func newTestKeyspace() *Keyspace {
	return New(clock.NewFake(1000))
}

func TestSetStringAndGet(t *testing.T) {
	k := newTestKeyspace()
	ok, err := k.SetString("foo", []byte("bar"), SetOpts{})
	require.NoError(t, err)
	assert.True(t, ok)

	val, found, err := k.GetString("foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("bar"), val)
}

func TestSetStringNXRespectsExisting(t *testing.T) {
	k := newTestKeyspace()
	_, _ = k.SetString("foo", []byte("bar"), SetOpts{})

	ok, err := k.SetString("foo", []byte("baz"), SetOpts{NX: true})
	require.NoError(t, err)
	assert.False(t, ok)

	val, _, _ := k.GetString("foo")
	assert.Equal(t, []byte("bar"), val)
}

func TestSetStringXXRequiresExisting(t *testing.T) {
	k := newTestKeyspace()
	ok, err := k.SetString("missing", []byte("v"), SetOpts{XX: true})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, k.Exists("missing"))
}

func TestIncrByOnMissingKeyStartsAtZero(t *testing.T) {
	k := newTestKeyspace()
	n, err := k.IncrBy("counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = k.IncrBy("counter", -2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestIncrByRejectsNonInteger(t *testing.T) {
	k := newTestKeyspace()
	_, _ = k.SetString("x", []byte("notanumber"), SetOpts{})
	_, err := k.IncrBy("x", 1)
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestWrongTypeAcrossKinds(t *testing.T) {
	k := newTestKeyspace()
	_, err := k.HSet("x", [][2][]byte{{[]byte("f"), []byte("v")}})
	require.NoError(t, err)

	_, _, err = k.GetString("x")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestExpireAndTTL(t *testing.T) {
	fake := clock.NewFake(1000)
	k := New(fake)
	_, _ = k.SetString("foo", []byte("bar"), SetOpts{})

	ok := k.SetExpireAt("foo", 1500)
	assert.True(t, ok)
	assert.Equal(t, int64(500), k.TTLMs("foo"))

	fake.Set(1600)
	_, found, _ := k.GetString("foo")
	assert.False(t, found)
	assert.False(t, k.Exists("foo"))
}

func TestPersistRemovesExpiry(t *testing.T) {
	k := newTestKeyspace()
	_, _ = k.SetString("foo", []byte("bar"), SetOpts{})
	k.SetExpireAt("foo", 2000)

	assert.True(t, k.Persist("foo"))
	assert.Equal(t, int64(-1), k.TTLMs("foo"))
	// persisting a key with no TTL reports no change
	assert.False(t, k.Persist("foo"))
}

func TestHashOperations(t *testing.T) {
	k := newTestKeyspace()
	created, err := k.HSet("h", [][2][]byte{{[]byte("a"), []byte("1")}, {[]byte("b"), []byte("2")}})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	v, ok, err := k.HGet("h", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	ok, err = k.HSetNX("h", "a", []byte("99"))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := k.HLen("h")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = k.HDel("h", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListPushPopRange(t *testing.T) {
	k := newTestKeyspace()
	n, err := k.Push("l", [][]byte{[]byte("a"), []byte("b")}, true) // LPUSH a b -> [b, a]
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := k.Range("l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b"), []byte("a")}, items)

	val, ok, err := k.Pop("l", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), val)
}

func TestSetOperations(t *testing.T) {
	k := newTestKeyspace()
	_, err := k.SAdd("s1", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	_, err = k.SAdd("s2", [][]byte{[]byte("b"), []byte("c"), []byte("d")})
	require.NoError(t, err)

	inter, err := k.SInter([]string{"s1", "s2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, toStrings(inter))

	union, err := k.SUnion([]string{"s1", "s2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, toStrings(union))

	diff, err := k.SDiff([]string{"s1", "s2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, toStrings(diff))
}

func toStrings(items [][]byte) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it)
	}
	return out
}

func TestZSetAddScoreRank(t *testing.T) {
	k := newTestKeyspace()
	n, err := k.ZAdd("z", []ZPair{{Member: "a", Score: 1}, {Member: "b", Score: 2}, {Member: "c", Score: 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rank, ok, err := k.ZRank("z", "b", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	score, ok, err := k.ZScore("z", "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.0, score)

	pairs, err := k.ZRangeByScore("z", ScoreBound{Value: 2}, ScoreBound{Value: 3})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "b", pairs[0].Member)
}

func TestVectorSetDimensionMismatch(t *testing.T) {
	k := newTestKeyspace()
	require.NoError(t, k.VSet("v", "e1", []float64{1, 0, 0}))
	err := k.VSet("v", "e2", []float64{1, 0})
	assert.ErrorIs(t, err, ErrDimMismatch)
}

func TestJSONSetGet(t *testing.T) {
	k := newTestKeyspace()
	require.NoError(t, k.JSONSet("doc", "$", `{"a":1,"b":{"c":2}}`))

	out, err := k.JSONGet("doc", []string{"$.b.c"})
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestDeleteIfEmptyCleansUpContainers(t *testing.T) {
	k := newTestKeyspace()
	_, _ = k.SAdd("s", [][]byte{[]byte("only")})
	_, err := k.SRem("s", [][]byte{[]byte("only")})
	require.NoError(t, err)
	assert.False(t, k.Exists("s"))
}

func TestStreamIDsStayMonotonicAcrossEmptying(t *testing.T) {
	k := newTestKeyspace()
	id, err := k.XAdd("st", "5-5", nil, 0)
	require.NoError(t, err)

	// Deleting the only entry removes the key entirely...
	n, err := k.XDel("st", []streams.ID{id})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, k.Exists("st"))

	// ...but a recreated stream still refuses IDs at or below the old top.
	_, err = k.XAdd("st", "3-3", nil, 0)
	assert.ErrorIs(t, err, streams.ErrTooSmall)

	id2, err := k.XAdd("st", "5-6", nil, 0)
	require.NoError(t, err)
	assert.True(t, id.Less(id2))
}

func TestRename(t *testing.T) {
	k := newTestKeyspace()
	_, _ = k.SetString("a", []byte("v"), SetOpts{})
	assert.True(t, k.Rename("a", "b"))
	assert.False(t, k.Exists("a"))
	val, _, _ := k.GetString("b")
	assert.Equal(t, []byte("v"), val)
	assert.False(t, k.Rename("missing", "c"))
}
