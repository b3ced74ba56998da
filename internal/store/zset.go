package store

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SortedSet orders members by (score ascending, member bytes lexicographic
// ascending). members is kept sorted at all times; byMember gives O(1)
// point lookup of a member's current score, used to find its old slot
// before re-inserting on ZADD/ZINCRBY.
//
// A skip list would give the same asymptotics with less data movement on
// insert, per the design notes; a sorted slice with binary search is
// simpler and is the structure this package uses throughout (see the
// grounding ledger), so ZSet follows suit rather than introducing a
// second indexing strategy just for this one kind.
type SortedSet struct {
	members  []zmember
	byMember map[string]float64
}

type zmember struct {
	member string
	score  float64
}

func less(a zmember, b zmember) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

func newZSet() *Value {
	return &Value{Kind: KindZSet, ZSet: &SortedSet{byMember: map[string]float64{}}}
}

func (z *SortedSet) Len() int { return len(z.members) }

func (z *SortedSet) find(m zmember) int {
	return sort.Search(len(z.members), func(i int) bool {
		return !less(z.members[i], m)
	})
}

// Add inserts or updates member's score. Returns true if member is new.
func (z *SortedSet) Add(member string, score float64) bool {
	if old, has := z.byMember[member]; has {
		idx := z.find(zmember{member, old})
		// find() may land left of the exact match if duplicate scores
		// exist; scan forward for the exact member.
		for idx < len(z.members) && z.members[idx].member != member {
			idx++
		}
		z.members = append(z.members[:idx], z.members[idx+1:]...)
		z.byMember[member] = score
		z.insertSorted(zmember{member, score})
		return false
	}
	z.byMember[member] = score
	z.insertSorted(zmember{member, score})
	return true
}

func (z *SortedSet) insertSorted(m zmember) {
	idx := z.find(m)
	z.members = append(z.members, zmember{})
	copy(z.members[idx+1:], z.members[idx:])
	z.members[idx] = m
}

func (z *SortedSet) Remove(member string) bool {
	score, has := z.byMember[member]
	if !has {
		return false
	}
	idx := z.find(zmember{member, score})
	for idx < len(z.members) && z.members[idx].member != member {
		idx++
	}
	z.members = append(z.members[:idx], z.members[idx+1:]...)
	delete(z.byMember, member)
	return true
}

func (z *SortedSet) Score(member string) (float64, bool) {
	s, ok := z.byMember[member]
	return s, ok
}

// Rank returns member's 0-based rank, ascending (rev=false) or
// descending (rev=true).
func (z *SortedSet) Rank(member string, rev bool) (int, bool) {
	score, has := z.byMember[member]
	if !has {
		return 0, false
	}
	idx := z.find(zmember{member, score})
	for idx < len(z.members) && z.members[idx].member != member {
		idx++
	}
	if rev {
		return len(z.members) - 1 - idx, true
	}
	return idx, true
}

// RangeByIndex returns the [start, stop] window of members by rank,
// clamped and negative-index-aware, ascending or descending.
func (z *SortedSet) RangeByIndex(start, stop int, rev bool) []zmember {
	n := len(z.members)
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return nil
	}
	out := make([]zmember, stop-start+1)
	if rev {
		for i := range out {
			out[i] = z.members[n-1-(start+i)]
		}
	} else {
		copy(out, z.members[start:stop+1])
	}
	return out
}

// ScoreBound is one side of a ZRANGEBYSCORE-style bound: Redis syntax
// uses "-inf"/"+inf" literals and an optional "(" prefix for exclusive.
type ScoreBound struct {
	Value     float64
	Exclusive bool
}

var ErrBadBound = errors.New("ERR min or max is not a float")

// ParseScoreBound parses a Redis-syntax score bound string.
func ParseScoreBound(s string) (ScoreBound, error) {
	exclusive := false
	if strings.HasPrefix(s, "(") {
		exclusive = true
		s = s[1:]
	}
	switch s {
	case "-inf":
		return ScoreBound{Value: math.Inf(-1), Exclusive: exclusive}, nil
	case "+inf", "inf":
		return ScoreBound{Value: math.Inf(1), Exclusive: exclusive}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ScoreBound{}, ErrBadBound
	}
	return ScoreBound{Value: f, Exclusive: exclusive}, nil
}

// RangeByScore returns members with min <= score <= max (bounds honoring
// exclusivity), ascending by (score, member).
func (z *SortedSet) RangeByScore(min, max ScoreBound) []zmember {
	var out []zmember
	for _, m := range z.members {
		if min.Exclusive {
			if m.score <= min.Value {
				continue
			}
		} else if m.score < min.Value {
			continue
		}
		if max.Exclusive {
			if m.score >= max.Value {
				break
			}
		} else if m.score > max.Value {
			break
		}
		out = append(out, m)
	}
	return out
}

// --- Keyspace-level wrappers ---

func (k *Keyspace) ZAdd(key string, pairs []ZPair) (int, error) {
	v, existed := k.GetOrCreate(key, newZSet)
	if existed && v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	added := 0
	for _, p := range pairs {
		if v.ZSet.Add(p.Member, p.Score) {
			added++
		}
	}
	k.Touch(key)
	return added, nil
}

type ZPair struct {
	Member string
	Score  float64
}

func (k *Keyspace) ZIncrBy(key string, member string, delta float64) (float64, error) {
	v, existed := k.GetOrCreate(key, newZSet)
	if existed && v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	cur, _ := v.ZSet.Score(member)
	next := cur + delta
	v.ZSet.Add(member, next)
	k.Touch(key)
	return next, nil
}

func (k *Keyspace) ZScore(key, member string) (float64, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, false, nil
	}
	if v.Kind != KindZSet {
		return 0, false, ErrWrongType
	}
	s, has := v.ZSet.Score(member)
	return s, has, nil
}

func (k *Keyspace) ZRem(key string, members []string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	removed := 0
	for _, m := range members {
		if v.ZSet.Remove(m) {
			removed++
		}
	}
	if removed > 0 {
		k.Touch(key)
		k.DeleteIfEmpty(key, v)
	}
	return removed, nil
}

func (k *Keyspace) ZCard(key string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	return v.ZSet.Len(), nil
}

func (k *Keyspace) ZRank(key, member string, rev bool) (int, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, false, nil
	}
	if v.Kind != KindZSet {
		return 0, false, ErrWrongType
	}
	r, has := v.ZSet.Rank(member, rev)
	return r, has, nil
}

func (k *Keyspace) ZRange(key string, start, stop int, rev bool) ([]ZPair, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindZSet {
		return nil, ErrWrongType
	}
	ms := v.ZSet.RangeByIndex(start, stop, rev)
	return toPairs(ms), nil
}

func (k *Keyspace) ZRangeByScore(key string, min, max ScoreBound) ([]ZPair, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindZSet {
		return nil, ErrWrongType
	}
	return toPairs(v.ZSet.RangeByScore(min, max)), nil
}

func (k *Keyspace) ZCount(key string, min, max ScoreBound) (int, error) {
	ps, err := k.ZRangeByScore(key, min, max)
	return len(ps), err
}

func (k *Keyspace) ZRemRangeByScore(key string, min, max ScoreBound) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindZSet {
		return 0, ErrWrongType
	}
	toRemove := v.ZSet.RangeByScore(min, max)
	for _, m := range toRemove {
		v.ZSet.Remove(m.member)
	}
	if len(toRemove) > 0 {
		k.Touch(key)
		k.DeleteIfEmpty(key, v)
	}
	return len(toRemove), nil
}

func toPairs(ms []zmember) []ZPair {
	out := make([]ZPair, len(ms))
	for i, m := range ms {
		out[i] = ZPair{Member: m.member, Score: m.score}
	}
	return out
}

// FormatScore renders a score the way ZRANGE WITHSCORES does: a decimal
// with trailing zeros trimmed, or "inf"/"-inf" for infinities.
func FormatScore(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}
