// Package txn implements the per-connection transaction controller:
// queued commands, the WATCH set, and the dirty-check MULTI/EXEC relies
// on for optimistic concurrency.
package txn

import "errors"

var ErrNestedMulti = errors.New("ERR MULTI calls can not be nested")

// VersionSource is the WATCH tag source -- store.Keyspace satisfies
// this without txn needing to import store.
type VersionSource interface {
	Version(key string) uint64
}

// Command is a queued, arity-checked-but-not-yet-executed command.
type Command struct {
	Name string
	Args [][]byte
}

// State is one connection's transaction context.
type State struct {
	InMulti bool
	Queued  []Command
	Errored bool
	watched map[string]uint64
}

func New() *State {
	return &State{watched: map[string]uint64{}}
}

// BeginMulti enters queued mode. Nested MULTI is an error.
func (s *State) BeginMulti() error {
	if s.InMulti {
		return ErrNestedMulti
	}
	s.InMulti = true
	s.Queued = nil
	s.Errored = false
	return nil
}

// Watch records the current version tag for each key. Only valid
// outside MULTI; the caller is responsible for enforcing that.
func (s *State) Watch(vs VersionSource, keys []string) {
	for _, k := range keys {
		if _, already := s.watched[k]; !already {
			s.watched[k] = vs.Version(k)
		}
	}
}

// Unwatch clears the watch set only.
func (s *State) Unwatch() {
	s.watched = map[string]uint64{}
}

// Enqueue adds a parsed (arity-valid) command to the queue.
func (s *State) Enqueue(cmd Command) {
	s.Queued = append(s.Queued, cmd)
}

// MarkErrored flags a queue-time parse/arity failure, so EXEC replies
// EXECABORT instead of running anything.
func (s *State) MarkErrored() {
	s.Errored = true
}

// Dirty reports whether any watched key's tag has changed since it was
// snapshotted.
func (s *State) Dirty(vs VersionSource) bool {
	for k, want := range s.watched {
		if vs.Version(k) != want {
			return true
		}
	}
	return false
}

// EndMulti clears queued-mode state: the queue, the errored flag, and
// (per spec) the watch set too, since EXEC and DISCARD both
// unconditionally clear WATCH.
func (s *State) EndMulti() {
	s.InMulti = false
	s.Queued = nil
	s.Errored = false
	s.watched = map[string]uint64{}
}

// Discard is EndMulti under its own name, for readability at call
// sites implementing the DISCARD command.
func (s *State) Discard() {
	s.EndMulti()
}
