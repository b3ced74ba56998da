package streams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDOrdering(t *testing.T) {
	assert.True(t, ID{1, 0}.Less(ID{1, 1}))
	assert.True(t, ID{1, 5}.Less(ID{2, 0}))
	assert.False(t, ID{2, 0}.Less(ID{1, 5}))
	assert.Equal(t, ID{1, 2}, ID{1, 1}.Next())
	assert.Equal(t, ID{2, 0}, ID{1, ^uint64(0)}.Next())
}

func TestParseStrict(t *testing.T) {
	id, err := ParseStrict("5-10")
	require.NoError(t, err)
	assert.Equal(t, ID{5, 10}, id)

	id, err = ParseStrict("5")
	require.NoError(t, err)
	assert.Equal(t, ID{5, 0}, id)

	_, err = ParseStrict("not-a-number")
	assert.ErrorIs(t, err, ErrBadID)
}

func TestParseRangeBounds(t *testing.T) {
	lo, err := ParseRangeLower("-")
	require.NoError(t, err)
	assert.Equal(t, Zero, lo)

	hi, err := ParseRangeUpper("+")
	require.NoError(t, err)
	assert.Equal(t, Max, hi)

	lo, err = ParseRangeLower("5")
	require.NoError(t, err)
	assert.Equal(t, ID{5, 0}, lo)

	hi, err = ParseRangeUpper("5")
	require.NoError(t, err)
	assert.Equal(t, ID{5, ^uint64(0)}, hi)

	excl, err := ParseRangeLower("(5-3")
	require.NoError(t, err)
	assert.Equal(t, ID{5, 4}, excl)
}

func TestParseAddID(t *testing.T) {
	last := ID{100, 2}
	id, err := ParseAddID("*", last, 100)
	require.NoError(t, err)
	assert.Equal(t, ID{100, 3}, id)

	id, err = ParseAddID("*", last, 200)
	require.NoError(t, err)
	assert.Equal(t, ID{200, 0}, id)

	id, err = ParseAddID("100-*", last, 0)
	require.NoError(t, err)
	assert.Equal(t, ID{100, 3}, id)

	id, err = ParseAddID("150-7", last, 0)
	require.NoError(t, err)
	assert.Equal(t, ID{150, 7}, id)
}

func TestStreamAddRangeAndTrim(t *testing.T) {
	s := New()
	for i := 1; i <= 5; i++ {
		err := s.Add(ID{uint64(i), 0}, []Field{{Name: "n", Value: []byte("v")}})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, s.Len())

	entries := s.Range(ID{2, 0}, ID{4, 0}, 0)
	require.Len(t, entries, 3)
	assert.Equal(t, ID{2, 0}, entries[0].ID)
	assert.Equal(t, ID{4, 0}, entries[2].ID)

	rev := s.RevRange(ID{2, 0}, ID{4, 0}, 0)
	assert.Equal(t, ID{4, 0}, rev[0].ID)

	removed := s.Trim(2)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 2, s.Len())
}

func TestStreamAddRejectsNonIncreasingID(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(ID{5, 0}, nil))
	err := s.Add(ID{5, 0}, nil)
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestStreamAfterAndGetDel(t *testing.T) {
	s := New()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Add(ID{uint64(i), 0}, nil))
	}
	after := s.After(ID{1, 0}, 0)
	assert.Len(t, after, 2)

	_, ok := s.Get(ID{2, 0})
	assert.True(t, ok)

	n := s.Del([]ID{{2, 0}})
	assert.Equal(t, 1, n)
	_, ok = s.Get(ID{2, 0})
	assert.False(t, ok)
}

func TestConsumerGroupDeliverAckClaim(t *testing.T) {
	s := New()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Add(ID{uint64(i), 0}, nil))
	}
	require.NoError(t, s.CreateGroup("g", Zero))
	g, ok := s.Group("g")
	require.True(t, ok)

	delivered := s.Deliver(g, "c1", 0, 10)
	require.Len(t, delivered, 3)
	assert.Equal(t, ID{3, 0}, g.LastDelivered)

	summary := g.PendingSummaryInfo()
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 3, summary.PerConsumer["c1"])

	acked := g.Ack([]ID{{1, 0}})
	assert.Equal(t, 1, acked)
	assert.Equal(t, 2, g.PendingSummaryInfo().Count)

	claimed := s.Claim(g, "c2", []ID{{2, 0}, {3, 0}}, 0, 20, false, nil, nil)
	require.Len(t, claimed, 2)
	for _, pe := range claimed {
		assert.Equal(t, "c2", pe.Consumer)
	}
}

func TestConsumerGroupCreateDuplicateFails(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateGroup("g", Zero))
	err := s.CreateGroup("g", Zero)
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestNotifierWakesSubscriber(t *testing.T) {
	n := NewNotifier()
	ch, unsubscribe := n.Subscribe([]string{"stream-a"})
	defer unsubscribe()

	n.Notify("stream-a")

	select {
	case <-ch:
	default:
		t.Fatal("expected a wake-up after Notify")
	}
}

func TestNotifierMultiKeySubscriberSurvivesRepeatedNotifies(t *testing.T) {
	n := NewNotifier()
	ch, unsubscribe := n.Subscribe([]string{"a", "b"})
	defer unsubscribe()

	// Both keys firing before the subscriber drains must coalesce into a
	// single buffered wake-up, not a double-close.
	n.Notify("a")
	n.Notify("b")

	select {
	case <-ch:
	default:
		t.Fatal("expected a wake-up after Notify")
	}

	// Drained; a further notify wakes it again.
	n.Notify("a")
	select {
	case <-ch:
	default:
		t.Fatal("expected a second wake-up")
	}
}

func TestNotifierUnsubscribeStopsWakeups(t *testing.T) {
	n := NewNotifier()
	ch, unsubscribe := n.Subscribe([]string{"a"})
	unsubscribe()

	n.Notify("a")
	select {
	case <-ch:
		t.Fatal("unsubscribed waiter should not be woken")
	default:
	}
}
