package streams

import "sync"

// Notifier implements the blocked-reader wait queues XREAD BLOCK and
// XREADGROUP BLOCK park on. It is deliberately independent of the
// keyspace lock: a blocked reader releases the keyspace lock before
// parking here, and re-acquires it only after being woken, per §5's
// suspension-point rules.
type Notifier struct {
	mu      sync.Mutex
	waiters map[string]map[int]chan struct{}
	nextID  int
}

func NewNotifier() *Notifier {
	return &Notifier{waiters: map[string]map[int]chan struct{}{}}
}

// Subscribe registers interest in any of keys and returns a channel that
// receives a signal when one of them is notified, plus an unsubscribe
// function the caller must call exactly once (on wake, on timeout, or on
// cancellation) to avoid leaking the registration. The channel is
// buffered so a wake that lands before the caller reaches its select is
// not lost.
func (n *Notifier) Subscribe(keys []string) (ch chan struct{}, unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch = make(chan struct{}, 1)
	for _, k := range keys {
		if n.waiters[k] == nil {
			n.waiters[k] = map[int]chan struct{}{}
		}
		n.waiters[k][id] = ch
	}

	var once sync.Once
	unsubscribe = func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for _, k := range keys {
				delete(n.waiters[k], id)
				if len(n.waiters[k]) == 0 {
					delete(n.waiters, k)
				}
			}
		})
	}
	return ch, unsubscribe
}

// Notify wakes every waiter currently registered on key. The send is
// non-blocking: a waiter whose buffer already holds a pending wake-up
// doesn't need another. Registrations are left in place until the
// waiter's own unsubscribe runs, since a waiter registered on several
// keys may be woken by any of them.
func (n *Notifier) Notify(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.waiters[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
