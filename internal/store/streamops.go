package store

import (
	"errors"

	"github.com/flondb/redisd/internal/streams"
)

var ErrNoGroup = errors.New("NOGROUP No such key or consumer group")

func newStream() *Value {
	return &Value{Kind: KindStream, Stream: streams.New()}
}

// streamAt returns the live *streams.Stream at key, or nil if absent. A
// missing key is not an error; a key holding another kind is
// ErrWrongType.
func (k *Keyspace) streamAt(key string) (*streams.Stream, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindStream {
		return nil, ErrWrongType
	}
	return v.Stream, nil
}

// getOrCreateStream returns the stream value at key, creating one if
// absent. A freshly created stream inherits the key's remembered
// last-generated ID, so auto-IDs stay monotonic across a period where
// the stream was emptied out and removed.
func (k *Keyspace) getOrCreateStream(key string) (*Value, error) {
	v, existed := k.GetOrCreate(key, newStream)
	if v.Kind != KindStream {
		return nil, ErrWrongType
	}
	if !existed {
		if last, ok := k.streamLast[key]; ok {
			v.Stream.LastID = last
		}
	}
	return v, nil
}

// XAdd appends fields to the stream at key under idSpec (a literal ID or
// "*"/"ms-*"), creating the stream if necessary. Returns the assigned ID.
func (k *Keyspace) XAdd(key, idSpec string, fields []streams.Field, nowMs int64) (streams.ID, error) {
	v, err := k.getOrCreateStream(key)
	if err != nil {
		return streams.ID{}, err
	}
	id, err := streams.ParseAddID(idSpec, v.Stream.LastID, nowMs)
	if err != nil {
		return streams.ID{}, err
	}
	if err := v.Stream.Add(id, fields); err != nil {
		return streams.ID{}, err
	}
	k.streamLast[key] = v.Stream.LastID
	k.Touch(key)
	return id, nil
}

func (k *Keyspace) XLen(key string) (int, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return 0, err
	}
	return s.Len(), nil
}

func (k *Keyspace) XRange(key string, lo, hi streams.ID, count int) ([]streams.Entry, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Range(lo, hi, count), nil
}

func (k *Keyspace) XRevRange(key string, lo, hi streams.ID, count int) ([]streams.Entry, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return nil, err
	}
	return s.RevRange(lo, hi, count), nil
}

// XReadOne returns entries after afterID for key, used by XREAD.
func (k *Keyspace) XReadOne(key string, afterID streams.ID, count int) ([]streams.Entry, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return nil, err
	}
	return s.After(afterID, count), nil
}

func (k *Keyspace) XDel(key string, ids []streams.ID) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindStream {
		return 0, ErrWrongType
	}
	n := v.Stream.Del(ids)
	if n > 0 {
		k.Touch(key)
		k.DeleteIfEmpty(key, v)
	}
	return n, nil
}

func (k *Keyspace) XTrim(key string, maxLen int) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindStream {
		return 0, ErrWrongType
	}
	n := v.Stream.Trim(maxLen)
	if n > 0 {
		k.Touch(key)
		k.DeleteIfEmpty(key, v)
	}
	return n, nil
}

// XGroupCreate implements XGROUP CREATE key group id-or-'$' [MKSTREAM].
func (k *Keyspace) XGroupCreate(key, group, idSpec string, mkstream bool) error {
	v, existed := k.Get(key)
	if !existed {
		if !mkstream {
			return streams.ErrNoStream
		}
		var err error
		v, err = k.getOrCreateStream(key)
		if err != nil {
			return err
		}
	} else if v.Kind != KindStream {
		return ErrWrongType
	}

	start := v.Stream.LastID
	if idSpec != "$" {
		id, err := streams.ParseStrict(idSpec)
		if err != nil {
			return err
		}
		start = id
	}
	if err := v.Stream.CreateGroup(group, start); err != nil {
		return err
	}
	k.Touch(key)
	return nil
}

func (k *Keyspace) XGroupDestroy(key, group string) (bool, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return false, err
	}
	ok := s.DestroyGroup(group)
	if ok {
		k.Touch(key)
	}
	return ok, nil
}

func (k *Keyspace) XGroupSetID(key, group, idSpec string) error {
	s, err := k.streamAt(key)
	if err != nil {
		return err
	}
	if s == nil {
		return streams.ErrNoStream
	}
	g, ok := s.Group(group)
	if !ok {
		return streams.ErrNoGroup
	}
	id := s.LastID
	if idSpec != "$" {
		parsed, err := streams.ParseStrict(idSpec)
		if err != nil {
			return err
		}
		id = parsed
	}
	g.SetID(id)
	k.Touch(key)
	return nil
}

func (k *Keyspace) XGroupDelConsumer(key, group, consumer string) (int, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return 0, err
	}
	g, ok := s.Group(group)
	if !ok {
		return 0, streams.ErrNoGroup
	}
	n := g.DelConsumer(consumer)
	k.Touch(key)
	return n, nil
}

// XReadGroupNew delivers new ('>') entries to consumer.
func (k *Keyspace) XReadGroupNew(key, group, consumer string, count int, nowMs int64) ([]streams.Entry, error) {
	s, err := k.streamAt(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoGroup
	}
	g, ok := s.Group(group)
	if !ok {
		return nil, ErrNoGroup
	}
	entries := s.Deliver(g, consumer, count, nowMs)
	if len(entries) > 0 {
		k.Touch(key)
	}
	return entries, nil
}

// XReadGroupHistory redelivers consumer's own PEL entries with id > after.
func (k *Keyspace) XReadGroupHistory(key, group, consumer string, after streams.ID, nowMs int64) ([]streams.Entry, error) {
	s, err := k.streamAt(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoGroup
	}
	g, ok := s.Group(group)
	if !ok {
		return nil, ErrNoGroup
	}
	pending := g.Redeliver(consumer, after, nowMs)
	out := make([]streams.Entry, 0, len(pending))
	for _, pe := range pending {
		if e, ok := s.Get(pe.ID); ok {
			out = append(out, e)
		} else {
			out = append(out, streams.Entry{ID: pe.ID})
		}
	}
	return out, nil
}

func (k *Keyspace) XAck(key, group string, ids []streams.ID) (int, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return 0, err
	}
	g, ok := s.Group(group)
	if !ok {
		return 0, streams.ErrNoGroup
	}
	n := g.Ack(ids)
	if n > 0 {
		k.Touch(key)
	}
	return n, nil
}

func (k *Keyspace) XPendingSummary(key, group string) (streams.PendingSummary, error) {
	s, err := k.streamAt(key)
	if err != nil {
		return streams.PendingSummary{}, err
	}
	if s == nil {
		return streams.PendingSummary{}, streams.ErrNoGroup
	}
	g, ok := s.Group(group)
	if !ok {
		return streams.PendingSummary{}, streams.ErrNoGroup
	}
	return g.PendingSummaryInfo(), nil
}

func (k *Keyspace) XPendingRange(key, group string, start, end streams.ID, count int, consumer string, minIdleMs int64, nowMs int64) ([]*streams.PendingEntry, error) {
	s, err := k.streamAt(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, streams.ErrNoGroup
	}
	g, ok := s.Group(group)
	if !ok {
		return nil, streams.ErrNoGroup
	}
	return g.PendingRange(start, end, count, consumer, minIdleMs, nowMs), nil
}

func (k *Keyspace) XClaim(key, group, consumer string, ids []streams.ID, minIdleMs int64, nowMs int64, force bool, overrideTime, overrideCount *int64) ([]*streams.PendingEntry, error) {
	s, err := k.streamAt(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, streams.ErrNoGroup
	}
	g, ok := s.Group(group)
	if !ok {
		return nil, streams.ErrNoGroup
	}
	claimed := s.Claim(g, consumer, ids, minIdleMs, nowMs, force, overrideTime, overrideCount)
	if len(claimed) > 0 {
		k.Touch(key)
	}
	return claimed, nil
}

// XEntryByID looks up a single entry, used by XCLAIM to return full
// entries rather than JUSTID.
func (k *Keyspace) XEntryByID(key string, id streams.ID) (streams.Entry, bool, error) {
	s, err := k.streamAt(key)
	if err != nil || s == nil {
		return streams.Entry{}, false, err
	}
	e, ok := s.Get(id)
	return e, ok, nil
}

// Stream returns the raw *streams.Stream for XINFO: nil if key is
// missing, ErrWrongType if it holds another kind.
func (k *Keyspace) Stream(key string) (*streams.Stream, error) {
	return k.streamAt(key)
}
