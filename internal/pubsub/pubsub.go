// Package pubsub implements the publish/subscribe registry: per-channel
// and per-pattern subscription sets keyed by connection, glob-pattern
// dispatch, and PUBLISH fan-out.
package pubsub

import "sync"

// Subscriber is anything that can receive a push message. The server
// package's Session implements this; pubsub never imports server, to
// keep the dependency direction leaf-ward.
type Subscriber interface {
	ID() string
	Deliver(kind string, args []string)
}

// Registry owns channel -> subscriber-set and pattern -> subscriber-set.
// Delivery copies the matching subscriber list under the lock, then
// dispatches sends outside it, so a slow subscriber's Deliver call never
// blocks PUBLISH for everyone else.
type Registry struct {
	mu       sync.Mutex
	channels map[string]map[string]Subscriber
	patterns map[string]map[string]Subscriber
}

func New() *Registry {
	return &Registry{
		channels: map[string]map[string]Subscriber{},
		patterns: map[string]map[string]Subscriber{},
	}
}

// Subscribe adds sub to channel and returns the subscriber's new total
// subscription count (channels plus patterns).
func (r *Registry) Subscribe(channel string, sub Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[channel] == nil {
		r.channels[channel] = map[string]Subscriber{}
	}
	r.channels[channel][sub.ID()] = sub
	return r.countFor(sub)
}

func (r *Registry) Unsubscribe(channel string, sub Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.channels[channel]; ok {
		delete(set, sub.ID())
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
	return r.countFor(sub)
}

func (r *Registry) PSubscribe(pattern string, sub Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patterns[pattern] == nil {
		r.patterns[pattern] = map[string]Subscriber{}
	}
	r.patterns[pattern][sub.ID()] = sub
	return r.countFor(sub)
}

func (r *Registry) PUnsubscribe(pattern string, sub Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.patterns[pattern]; ok {
		delete(set, sub.ID())
		if len(set) == 0 {
			delete(r.patterns, pattern)
		}
	}
	return r.countFor(sub)
}

// Channels returns the channels sub is currently subscribed to.
func (r *Registry) Channels(sub Subscriber) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for ch, set := range r.channels {
		if _, ok := set[sub.ID()]; ok {
			out = append(out, ch)
		}
	}
	return out
}

func (r *Registry) Patterns(sub Subscriber) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for p, set := range r.patterns {
		if _, ok := set[sub.ID()]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) countFor(sub Subscriber) int {
	count := 0
	for _, set := range r.channels {
		if _, ok := set[sub.ID()]; ok {
			count++
		}
	}
	for _, set := range r.patterns {
		if _, ok := set[sub.ID()]; ok {
			count++
		}
	}
	return count
}

// RemoveAll drops every subscription sub holds, e.g. on connection
// close.
func (r *Registry) RemoveAll(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch, set := range r.channels {
		delete(set, sub.ID())
		if len(set) == 0 {
			delete(r.channels, ch)
		}
	}
	for p, set := range r.patterns {
		delete(set, sub.ID())
		if len(set) == 0 {
			delete(r.patterns, p)
		}
	}
}

// Publish delivers payload to every exact-channel subscriber and every
// matching pattern subscriber, returning the total recipient count. The
// subscriber lists are copied under the lock; delivery itself happens
// after unlocking.
func (r *Registry) Publish(channel, payload string) int {
	r.mu.Lock()
	var directs []Subscriber
	if set, ok := r.channels[channel]; ok {
		directs = make([]Subscriber, 0, len(set))
		for _, s := range set {
			directs = append(directs, s)
		}
	}
	type patMatch struct {
		pattern string
		sub     Subscriber
	}
	var patMatches []patMatch
	for pattern, set := range r.patterns {
		if !Match(pattern, channel) {
			continue
		}
		for _, s := range set {
			patMatches = append(patMatches, patMatch{pattern, s})
		}
	}
	r.mu.Unlock()

	for _, s := range directs {
		s.Deliver("message", []string{channel, payload})
	}
	for _, pm := range patMatches {
		pm.sub.Deliver("pmessage", []string{pm.pattern, channel, payload})
	}
	return len(directs) + len(patMatches)
}
