package scope

import (
	"strings"
	"sync"
)

// Waiter identifies the activation pass asking a cache for a key. Label names
// the key in cycle reports. A zero Waiter is not tracked.
type Waiter struct {
	ID    string
	Label string
}

// CycleError reports that waiting for a key would close a loop of passes each
// waiting on a key another one is creating.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "circular wait between concurrent activations: " + strings.Join(e.Chain, " -> ")
}

type slot struct {
	cache *Cache
	key   string
}

type holder struct {
	id    string
	label string
}

// waits is the wait-for graph of one table: which pass is creating each slot
// and which slot each pass is blocked on. A pass blocks on one slot at a time.
type waits struct {
	mu      sync.Mutex
	holders map[slot]holder
	waiting map[string]slot
}

func newWaits() *waits {
	return &waits{
		holders: make(map[slot]holder),
		waiting: make(map[string]slot),
	}
}

// wait records that w blocks on s. It fails instead when the holders of s,
// followed through what they wait on, lead back to w.
func (ws *waits) wait(s slot, w Waiter) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	chain := []string{w.Label}
	cur := s
	for range len(ws.holders) + 1 {
		h, ok := ws.holders[cur]
		if !ok {
			break
		}
		if h.id == w.ID {
			return &CycleError{Chain: append([]string{h.label}, chain...)}
		}
		next, ok := ws.waiting[h.id]
		if !ok {
			break
		}
		nh, held := ws.holders[next]
		if !held {
			break
		}
		chain = append(chain, nh.label)
		cur = next
	}

	ws.waiting[w.ID] = s
	return nil
}

func (ws *waits) done(s slot, w Waiter) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.waiting[w.ID] == s {
		delete(ws.waiting, w.ID)
	}
}

// hold marks w as the creator of s. A creator is no longer waiting.
func (ws *waits) hold(s slot, w Waiter) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	delete(ws.waiting, w.ID)
	ws.holders[s] = holder{id: w.ID, label: w.Label}
}

func (ws *waits) release(s slot) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	delete(ws.holders, s)
}
