package streams

import (
	"errors"
	"sort"
)

var (
	ErrGroupExists   = errors.New("BUSYGROUP Consumer Group name already exists")
	ErrNoGroup       = errors.New("NOGROUP No such consumer group")
	ErrNoStream      = errors.New("ERR The XGROUP subcommand requires the key to exist. Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically")
)

// PendingEntry records one not-yet-acknowledged delivery.
type PendingEntry struct {
	ID            ID
	Consumer      string
	DeliveryTime  int64
	DeliveryCount int64
}

// Consumer is a named reader within a group.
type Consumer struct {
	Name        string
	SeenTime    int64
	ActiveTime  int64
}

// Group is a named cursor into a stream shared by multiple consumers,
// with per-entry ownership tracked in the PEL.
type Group struct {
	Name           string
	LastDelivered  ID
	Consumers      map[string]*Consumer
	pel            map[ID]*PendingEntry
}

func newGroup(name string, start ID) *Group {
	return &Group{
		Name:          name,
		LastDelivered: start,
		Consumers:     map[string]*Consumer{},
		pel:           map[ID]*PendingEntry{},
	}
}

// CreateGroup creates a group on s, starting at startID ('$' is resolved
// to s.LastID by the caller before calling this).
func (s *Stream) CreateGroup(name string, startID ID) error {
	if _, exists := s.groups[name]; exists {
		return ErrGroupExists
	}
	s.groups[name] = newGroup(name, startID)
	return nil
}

func (s *Stream) Group(name string) (*Group, bool) {
	g, ok := s.groups[name]
	return g, ok
}

func (s *Stream) DestroyGroup(name string) bool {
	if _, ok := s.groups[name]; !ok {
		return false
	}
	delete(s.groups, name)
	return true
}

func (s *Stream) GroupNames() []string {
	names := make([]string, 0, len(s.groups))
	for n := range s.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g *Group) SetID(id ID) {
	g.LastDelivered = id
}

func (g *Group) ensureConsumer(name string, now int64) *Consumer {
	c, ok := g.Consumers[name]
	if !ok {
		c = &Consumer{Name: name, SeenTime: now, ActiveTime: now}
		g.Consumers[name] = c
	}
	return c
}

// DelConsumer removes a consumer and its PEL entries, returning the
// count of PEL entries deleted.
func (g *Group) DelConsumer(name string) int {
	if _, ok := g.Consumers[name]; !ok {
		return 0
	}
	removed := 0
	for id, pe := range g.pel {
		if pe.Consumer == name {
			delete(g.pel, id)
			removed++
		}
	}
	delete(g.Consumers, name)
	return removed
}

// Deliver advances the group's cursor over entries after LastDelivered,
// up to count (0 = unbounded), recording each as a pending entry for
// consumer.
func (s *Stream) Deliver(g *Group, consumer string, count int, now int64) []Entry {
	entries := s.After(g.LastDelivered, count)
	if len(entries) == 0 {
		return nil
	}
	g.ensureConsumer(consumer, now)
	for _, e := range entries {
		g.LastDelivered = e.ID
		g.pel[e.ID] = &PendingEntry{
			ID:            e.ID,
			Consumer:      consumer,
			DeliveryTime:  now,
			DeliveryCount: 1,
		}
	}
	g.Consumers[consumer].ActiveTime = now
	return entries
}

// Redeliver returns this consumer's PEL entries with ID > after, bumping
// their delivery count and stamping the new delivery time.
func (g *Group) Redeliver(consumer string, after ID, now int64) []*PendingEntry {
	var out []*PendingEntry
	for _, pe := range g.pel {
		if pe.Consumer == consumer && after.Less(pe.ID) {
			pe.DeliveryTime = now
			pe.DeliveryCount++
			out = append(out, pe)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// Ack removes the named ids from the PEL, returning the count actually
// removed.
func (g *Group) Ack(ids []ID) int {
	removed := 0
	for _, id := range ids {
		if _, ok := g.pel[id]; ok {
			delete(g.pel, id)
			removed++
		}
	}
	return removed
}

// PendingSummary is XPENDING's summary-form result.
type PendingSummary struct {
	Count        int
	MinID        ID
	MaxID        ID
	PerConsumer  map[string]int
}

func (g *Group) PendingSummaryInfo() PendingSummary {
	summary := PendingSummary{PerConsumer: map[string]int{}}
	first := true
	for id, pe := range g.pel {
		summary.Count++
		summary.PerConsumer[pe.Consumer]++
		if first || id.Less(summary.MinID) {
			summary.MinID = id
		}
		if first || summary.MaxID.Less(id) {
			summary.MaxID = id
		}
		first = false
	}
	return summary
}

// PendingRange returns entries in [start, end], capped at count,
// optionally filtered by consumer and by minimum idle time.
func (g *Group) PendingRange(start, end ID, count int, consumer string, minIdleMs int64, now int64) []*PendingEntry {
	var all []*PendingEntry
	for _, pe := range g.pel {
		if pe.ID.Less(start) || end.Less(pe.ID) {
			continue
		}
		if consumer != "" && pe.Consumer != consumer {
			continue
		}
		if now-pe.DeliveryTime < minIdleMs {
			continue
		}
		all = append(all, pe)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.Less(all[j].ID) })
	if count > 0 && count < len(all) {
		all = all[:count]
	}
	return all
}

// Claim transfers ownership of ids to consumer. An id is claimed iff it
// exists in the PEL and its idle time >= minIdleMs, or force is set and
// the id exists in the stream (creating a PEL entry in that case).
func (s *Stream) Claim(g *Group, consumer string, ids []ID, minIdleMs int64, now int64, force bool, overrideDeliveryTime *int64, overrideCount *int64) []*PendingEntry {
	var claimed []*PendingEntry
	g.ensureConsumer(consumer, now)
	for _, id := range ids {
		pe, inPel := g.pel[id]
		if !inPel {
			if !force {
				continue
			}
			if _, inStream := s.Get(id); !inStream {
				continue
			}
			pe = &PendingEntry{ID: id, DeliveryCount: 0}
			g.pel[id] = pe
		} else if now-pe.DeliveryTime < minIdleMs {
			continue
		}

		pe.Consumer = consumer
		if overrideDeliveryTime != nil {
			pe.DeliveryTime = *overrideDeliveryTime
		} else {
			pe.DeliveryTime = now
		}
		if overrideCount != nil {
			pe.DeliveryCount = *overrideCount
		} else {
			pe.DeliveryCount++
		}
		claimed = append(claimed, pe)
	}
	return claimed
}
