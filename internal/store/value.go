// Package store implements the typed keyspace: the map from keys to
// tagged Value Objects, the TTL subsystem that rides alongside it, and
// the per-kind operations (string, hash, list, set, sorted set). Stream,
// JSON and vector kinds share the same Value tag but keep their
// payload-specific logic in sibling packages (streams, jsondoc) or in
// vector.go alongside this one.
package store

import (
	"errors"

	"github.com/flondb/redisd/internal/streams"
)

// Kind tags which variant a Value holds. Every operation pattern-matches
// on this instead of doing runtime type assertions against arbitrary Go
// types, so a command against the wrong kind always fails the same way.
type Kind int

const (
	KindString Kind = iota
	KindHash
	KindList
	KindSet
	KindZSet
	KindStream
	KindJSON
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	case KindStream:
		return "stream"
	case KindJSON:
		return "ReJSON-RL"
	case KindVector:
		return "vectorset"
	}
	return "unknown"
}

// Value is the tagged variant stored for every key. Only the field
// matching Kind is meaningful; the rest are zero. The WATCH tag is not
// stored here: Keyspace keeps a per-key version counter, bumped on every
// mutation including deletion, so that a stale watcher can tell a key
// changed out from under it even if it was deleted and recreated since.
type Value struct {
	Kind Kind

	Str []byte

	hashFields map[string][]byte
	hashOrder  []string

	List [][]byte

	Set map[string]struct{}

	ZSet *SortedSet

	Stream *streams.Stream

	JSON []byte

	Vector *VectorIndex
}

// ErrWrongType is returned whenever an operation is attempted against a
// key holding a different Kind. Commands translate it into a RESP
// WRONGTYPE error reply.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

func newHash() *Value {
	return &Value{Kind: KindHash, hashFields: map[string][]byte{}}
}

func newSet() *Value {
	return &Value{Kind: KindSet, Set: map[string]struct{}{}}
}

// IsEmptyContainer reports whether v is a container kind that has become
// logically empty and should be removed from the keyspace.
func (v *Value) IsEmptyContainer() bool {
	switch v.Kind {
	case KindHash:
		return len(v.hashFields) == 0
	case KindList:
		return len(v.List) == 0
	case KindSet:
		return len(v.Set) == 0
	case KindZSet:
		return v.ZSet == nil || v.ZSet.Len() == 0
	case KindStream:
		return v.Stream == nil || v.Stream.Len() == 0
	}
	return false
}
