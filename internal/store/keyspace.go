package store

import (
	"sync"

	"github.com/flondb/redisd/internal/clock"
	"github.com/flondb/redisd/internal/streams"
)

// Keyspace is the exclusive owner of all Value Objects. It serializes
// access behind a single mutex: §5 of the data-engine design calls for a
// keyspace-wide lock held for the duration of a command (or an entire
// EXEC block), and this is that lock.
type Keyspace struct {
	mu      sync.Mutex
	clock   clock.Clock
	data    map[string]*Value
	expires map[string]int64 // key -> absolute expiry ms, only present when the key has a TTL
	// versions never shrinks: a key's WATCH tag must keep climbing across
	// delete/recreate cycles, or a watcher that snapshotted "absent" could
	// be fooled by a key that was deleted and recreated between WATCH and
	// EXEC landing back on the same tag.
	versions map[string]uint64
	// streamLast remembers each stream key's last-generated entry ID even
	// after the stream value itself is removed (all entries deleted), so a
	// recreated stream keeps assigning strictly increasing IDs.
	streamLast map[string]streams.ID
}

func New(c clock.Clock) *Keyspace {
	return &Keyspace{
		clock:      c,
		data:       make(map[string]*Value),
		expires:    make(map[string]int64),
		versions:   make(map[string]uint64),
		streamLast: make(map[string]streams.ID),
	}
}

// Lock/Unlock expose the keyspace-wide lock directly so the transaction
// controller can hold it across an entire EXEC block.
func (k *Keyspace) Lock()   { k.mu.Lock() }
func (k *Keyspace) Unlock() { k.mu.Unlock() }

// Version returns the current WATCH tag for key, without side effects.
func (k *Keyspace) Version(key string) uint64 {
	return k.versions[key]
}

func (k *Keyspace) bump(key string) {
	k.versions[key]++
}

// expireIfDue evicts key if it has a TTL that has passed. Must be called
// with the lock held. Returns true if the key was evicted.
func (k *Keyspace) expireIfDue(key string) bool {
	exp, ok := k.expires[key]
	if !ok {
		return false
	}
	if k.clock.NowMs() < exp {
		return false
	}
	delete(k.data, key)
	delete(k.expires, key)
	k.bump(key)
	return true
}

// Get performs lazy expiration and returns the live value for key, or
// false if it is missing or expired.
func (k *Keyspace) Get(key string) (*Value, bool) {
	k.expireIfDue(key)
	v, ok := k.data[key]
	return v, ok
}

// GetOrCreate returns the existing value for key, creating one via
// create() if absent (after lazy expiration). The bool reports whether
// the value already existed.
func (k *Keyspace) GetOrCreate(key string, create func() *Value) (*Value, bool) {
	k.expireIfDue(key)
	if v, ok := k.data[key]; ok {
		return v, true
	}
	v := create()
	k.data[key] = v
	k.bump(key)
	return v, false
}

// Set installs v as the value for key, clearing any previous TTL (the
// caller re-arms one afterwards if needed) and bumping the WATCH tag.
func (k *Keyspace) Set(key string, v *Value) {
	k.data[key] = v
	delete(k.expires, key)
	k.bump(key)
}

// Touch bumps key's WATCH tag without otherwise changing the keyspace,
// for in-place mutations (e.g. HSET, LPUSH) that don't go through Set.
func (k *Keyspace) Touch(key string) {
	k.bump(key)
}

// DeleteIfEmpty removes key if its value is a container that has become
// logically empty, per the "empty containers disappear" invariant.
func (k *Keyspace) DeleteIfEmpty(key string, v *Value) {
	if v.IsEmptyContainer() {
		k.Delete(key)
	}
}

// Delete removes key's value and any TTL. Returns true if the key
// existed.
func (k *Keyspace) Delete(key string) bool {
	k.expireIfDue(key)
	_, existed := k.data[key]
	delete(k.data, key)
	delete(k.expires, key)
	if existed {
		k.bump(key)
	}
	return existed
}

// Exists reports whether key currently holds a live value.
func (k *Keyspace) Exists(key string) bool {
	k.expireIfDue(key)
	_, ok := k.data[key]
	return ok
}

// SetExpireAt arms an absolute-millisecond expiry for an existing key.
// Returns false if the key does not exist.
func (k *Keyspace) SetExpireAt(key string, atMs int64) bool {
	k.expireIfDue(key)
	if _, ok := k.data[key]; !ok {
		return false
	}
	k.expires[key] = atMs
	k.bump(key)
	return true
}

// Persist removes any TTL from key. Returns true if a TTL was removed.
func (k *Keyspace) Persist(key string) bool {
	if k.expireIfDue(key) {
		return false
	}
	if _, ok := k.data[key]; !ok {
		return false
	}
	if _, had := k.expires[key]; !had {
		return false
	}
	delete(k.expires, key)
	k.bump(key)
	return true
}

// TTLMs returns the remaining time-to-live in milliseconds: -2 if key is
// missing, -1 if it has no TTL, else the non-negative remaining time.
func (k *Keyspace) TTLMs(key string) int64 {
	if k.expireIfDue(key) {
		return -2
	}
	if _, ok := k.data[key]; !ok {
		return -2
	}
	exp, ok := k.expires[key]
	if !ok {
		return -1
	}
	remaining := exp - k.clock.NowMs()
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Keys returns a snapshot of every live key for which match returns
// true (a nil match accepts every key). Expired keys are swept lazily as
// they are encountered.
func (k *Keyspace) Keys(match func(string) bool) []string {
	out := make([]string, 0, len(k.data))
	for key := range k.data {
		if k.expireIfDue(key) {
			continue
		}
		if match == nil || match(key) {
			out = append(out, key)
		}
	}
	return out
}

// Size returns the number of live keys, sweeping any that have expired.
func (k *Keyspace) Size() int {
	for key := range k.data {
		k.expireIfDue(key)
	}
	return len(k.data)
}

// Flush removes every key and TTL, bumping every WATCH tag so any
// outstanding WATCH on a wiped key correctly observes dirtiness.
func (k *Keyspace) Flush() {
	for key := range k.data {
		k.bump(key)
	}
	k.data = make(map[string]*Value)
	k.expires = make(map[string]int64)
	k.streamLast = make(map[string]streams.ID)
}

// Sweep samples up to limit keys with a TTL and evicts any that are due,
// returning the count evicted. This is the periodic active-expiry
// sweep; lazy expiration on Get/Exists/etc. covers correctness on its
// own, Sweep just reclaims memory for keys nobody reads again.
func (k *Keyspace) Sweep(limit int) int {
	evicted := 0
	checked := 0
	for key := range k.expires {
		if checked >= limit {
			break
		}
		checked++
		if k.expireIfDue(key) {
			evicted++
		}
	}
	return evicted
}

// Rename moves the value (and TTL) at src to dst, overwriting dst.
// Returns false if src does not exist.
func (k *Keyspace) Rename(src, dst string) bool {
	k.expireIfDue(src)
	v, ok := k.data[src]
	if !ok {
		return false
	}
	exp, hadExp := k.expires[src]
	delete(k.data, src)
	delete(k.expires, src)
	k.bump(src)

	k.data[dst] = v
	if hadExp {
		k.expires[dst] = exp
	} else {
		delete(k.expires, dst)
	}
	if v.Kind == KindStream {
		k.streamLast[dst] = v.Stream.LastID
		delete(k.streamLast, src)
	}
	k.bump(dst)
	return true
}
