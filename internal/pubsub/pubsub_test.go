package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	id       string
	received [][]string
}

func (f *fakeSub) ID() string { return f.id }
func (f *fakeSub) Deliver(kind string, args []string) {
	f.received = append(f.received, append([]string{kind}, args...))
}

func TestMatchWildcards(t *testing.T) {
	assert.True(t, Match("*", "anything"))
	assert.True(t, Match("news.*", "news.tech"))
	assert.False(t, Match("news.*", "sports.tech"))
	assert.True(t, Match("h?llo", "hello"))
	assert.False(t, Match("h?llo", "heello"))
}

func TestMatchCharacterClasses(t *testing.T) {
	assert.False(t, Match("[abc]ello", "hello")) // 'h' not in class
	assert.True(t, Match("[a-z]ello", "hello"))
	assert.True(t, Match("[!a-c]ello", "hello"))
	assert.False(t, Match("[!a-z]ello", "hello"))
	assert.True(t, Match("[^0-9]ello", "hello"))
}

func TestMatchEscapes(t *testing.T) {
	assert.True(t, Match(`\*literal`, "*literal"))
	assert.False(t, Match(`\*literal`, "xliteral"))
}

func TestSubscribeUnsubscribeCounts(t *testing.T) {
	r := New()
	sub := &fakeSub{id: "s1"}

	count := r.Subscribe("news", sub)
	assert.Equal(t, 1, count)

	count = r.Subscribe("sports", sub)
	assert.Equal(t, 2, count)

	count = r.Unsubscribe("news", sub)
	assert.Equal(t, 1, count)

	assert.ElementsMatch(t, []string{"sports"}, r.Channels(sub))
}

func TestPublishDeliversToExactAndPattern(t *testing.T) {
	r := New()
	exact := &fakeSub{id: "exact"}
	pattern := &fakeSub{id: "pattern"}

	r.Subscribe("news.tech", exact)
	r.PSubscribe("news.*", pattern)

	n := r.Publish("news.tech", "hello")
	require.Equal(t, 2, n)

	require.Len(t, exact.received, 1)
	assert.Equal(t, []string{"message", "news.tech", "hello"}, exact.received[0])

	require.Len(t, pattern.received, 1)
	assert.Equal(t, []string{"pmessage", "news.*", "news.tech", "hello"}, pattern.received[0])
}

func TestPublishToUnmatchedChannelDeliversNothing(t *testing.T) {
	r := New()
	sub := &fakeSub{id: "s1"}
	r.Subscribe("other", sub)

	n := r.Publish("news.tech", "hello")
	assert.Equal(t, 0, n)
	assert.Empty(t, sub.received)
}

func TestRemoveAllClearsBothMaps(t *testing.T) {
	r := New()
	sub := &fakeSub{id: "s1"}
	r.Subscribe("a", sub)
	r.PSubscribe("b*", sub)

	r.RemoveAll(sub)
	assert.Empty(t, r.Channels(sub))
	assert.Empty(t, r.Patterns(sub))
}
