package streams

import "sort"

// Field is one field=value pair of a stream entry, order-preserved.
type Field struct {
	Name  string
	Value []byte
}

// Entry is a single stream record.
type Entry struct {
	ID     ID
	Fields []Field
}

// Stream holds ordered entries and the consumer groups reading them.
// LastID persists even across full deletion, so auto-generated IDs stay
// monotonic for the life of the key.
type Stream struct {
	entries []Entry // kept sorted ascending by ID; inserts are almost
	// always at the tail since IDs are strictly increasing.
	LastID ID
	groups map[string]*Group
}

func New() *Stream {
	return &Stream{groups: map[string]*Group{}}
}

func (s *Stream) Len() int { return len(s.entries) }

// Add appends an entry with the given id, which must be strictly
// greater than s.LastID. This is where that rule is enforced:
// ParseAddID does not compare a literal ID against the last one.
func (s *Stream) Add(id ID, fields []Field) error {
	if id == Zero {
		return ErrZeroID
	}
	if !s.LastID.Less(id) {
		return ErrTooSmall
	}
	s.entries = append(s.entries, Entry{ID: id, Fields: fields})
	s.LastID = id
	return nil
}

func (s *Stream) indexOf(id ID) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].ID.Less(id)
	})
}

// Range returns entries with lo <= ID <= hi, ascending, capped at count
// if count > 0.
func (s *Stream) Range(lo, hi ID, count int) []Entry {
	start := s.indexOf(lo)
	var out []Entry
	for i := start; i < len(s.entries); i++ {
		if hi.Less(s.entries[i].ID) {
			break
		}
		out = append(out, s.entries[i])
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

// RevRange is Range but descending, capped at count if count > 0.
func (s *Stream) RevRange(lo, hi ID, count int) []Entry {
	all := s.Range(lo, hi, 0)
	out := make([]Entry, len(all))
	for i, e := range all {
		out[len(all)-1-i] = e
	}
	if count > 0 && count < len(out) {
		out = out[:count]
	}
	return out
}

// After returns entries strictly greater than after, capped at count if
// count > 0.
func (s *Stream) After(after ID, count int) []Entry {
	start := sort.Search(len(s.entries), func(i int) bool {
		return after.Less(s.entries[i].ID)
	})
	var out []Entry
	for i := start; i < len(s.entries); i++ {
		out = append(out, s.entries[i])
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

// Get returns the entry with the exact id, if present.
func (s *Stream) Get(id ID) (Entry, bool) {
	idx := s.indexOf(id)
	if idx < len(s.entries) && s.entries[idx].ID == id {
		return s.entries[idx], true
	}
	return Entry{}, false
}

// Del removes entries by id, returning the count actually removed. Does
// not touch LastID, per the invariant that auto-IDs stay monotonic even
// across deletion.
func (s *Stream) Del(ids []ID) int {
	removed := 0
	for _, id := range ids {
		idx := s.indexOf(id)
		if idx < len(s.entries) && s.entries[idx].ID == id {
			s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
			removed++
		}
	}
	return removed
}

// Trim keeps only the newest maxLen entries.
func (s *Stream) Trim(maxLen int) int {
	if len(s.entries) <= maxLen {
		return 0
	}
	removed := len(s.entries) - maxLen
	s.entries = append([]Entry{}, s.entries[removed:]...)
	return removed
}

// FirstID and LastEntryID back XINFO STREAM's first-entry/last-entry
// fields; they report the zero ID and false on an empty stream.
func (s *Stream) FirstID() (ID, bool) {
	if len(s.entries) == 0 {
		return ID{}, false
	}
	return s.entries[0].ID, true
}

func (s *Stream) LastEntryID() (ID, bool) {
	if len(s.entries) == 0 {
		return ID{}, false
	}
	return s.entries[len(s.entries)-1].ID, true
}

// GroupCount reports how many consumer groups are registered on s.
func (s *Stream) GroupCount() int { return len(s.groups) }
