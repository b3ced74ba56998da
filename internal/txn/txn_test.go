package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVersions struct {
	versions map[string]uint64
}

func (f *fakeVersions) Version(key string) uint64 { return f.versions[key] }

func TestBeginMultiRejectsNesting(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginMulti())
	assert.ErrorIs(t, s.BeginMulti(), ErrNestedMulti)
}

func TestEnqueueAndEndMulti(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginMulti())
	s.Enqueue(Command{Name: "SET", Args: [][]byte{[]byte("SET"), []byte("k"), []byte("v")}})
	assert.Len(t, s.Queued, 1)

	s.EndMulti()
	assert.False(t, s.InMulti)
	assert.Empty(t, s.Queued)
	assert.False(t, s.Errored)
}

func TestMarkErroredSurvivesUntilEndMulti(t *testing.T) {
	s := New()
	require.NoError(t, s.BeginMulti())
	s.MarkErrored()
	assert.True(t, s.Errored)
	s.EndMulti()
	assert.False(t, s.Errored)
}

func TestWatchDirtyDetectsVersionChange(t *testing.T) {
	vs := &fakeVersions{versions: map[string]uint64{"k": 1}}
	s := New()
	s.Watch(vs, []string{"k"})
	assert.False(t, s.Dirty(vs))

	vs.versions["k"] = 2
	assert.True(t, s.Dirty(vs))
}

func TestUnwatchClearsDirtyCheck(t *testing.T) {
	vs := &fakeVersions{versions: map[string]uint64{"k": 1}}
	s := New()
	s.Watch(vs, []string{"k"})
	vs.versions["k"] = 2
	require.True(t, s.Dirty(vs))

	s.Unwatch()
	assert.False(t, s.Dirty(vs))
}

func TestDiscardClearsWatchToo(t *testing.T) {
	vs := &fakeVersions{versions: map[string]uint64{"k": 1}}
	s := New()
	s.Watch(vs, []string{"k"})
	s.Discard()
	vs.versions["k"] = 99
	assert.False(t, s.Dirty(vs))
}

func TestWatchKeepsFirstSnapshotOnRepeat(t *testing.T) {
	vs := &fakeVersions{versions: map[string]uint64{"k": 1}}
	s := New()
	s.Watch(vs, []string{"k"})
	vs.versions["k"] = 2
	s.Watch(vs, []string{"k"}) // re-watching shouldn't re-snapshot
	assert.True(t, s.Dirty(vs))
}
