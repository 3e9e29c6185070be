// Package cooldown gates player actions by the time since their last use.
package cooldown

import (
	"fmt"
	"sync"
	"time"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
)

// ActiveError reports a blocked action and exactly how long is left.
type ActiveError struct {
	Action    string
	Remaining time.Duration
}

func (e *ActiveError) Error() string {
	return fmt.Sprintf("%s is on cooldown for another %s", e.Action, e.Remaining.Round(time.Second))
}
func (e *ActiveError) Kind() fault.Kind { return fault.StateConflict }

type key struct {
	player string
	action string
}

// Manager stores the last successful invocation per (player, action).
type Manager struct {
	now   func() time.Time
	floor time.Duration

	mu   sync.Mutex
	last map[key]time.Time
}

// New returns a Manager. floor is the shortest cooldown any action can have.
func New(now func() time.Time, floor time.Duration) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{now: now, floor: floor, last: make(map[key]time.Time)}
}

// Duration is the effective cooldown: base minus modifier, never below the floor.
func (m *Manager) Duration(base, modifier time.Duration) time.Duration {
	d := base - modifier
	if d < m.floor {
		return m.floor
	}
	return d
}

// TryConsume stamps the action and returns nil when it is ready, or an
// *ActiveError with the remaining time and no mutation when it is not. The
// check and the stamp happen under one lock, before the caller's effect runs.
func (m *Manager) TryConsume(player, action string, base, modifier time.Duration) error {
	d := m.Duration(base, modifier)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := key{player, action}
	if last, ok := m.last[k]; ok {
		if elapsed := now.Sub(last); elapsed < d {
			return &ActiveError{Action: action, Remaining: d - elapsed}
		}
	}
	m.last[k] = now
	return nil
}

// Remaining reports the time left without consuming anything.
func (m *Manager) Remaining(player, action string, base, modifier time.Duration) time.Duration {
	d := m.Duration(base, modifier)

	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.last[key{player, action}]
	if !ok {
		return 0
	}
	if left := d - m.now().Sub(last); left > 0 {
		return left
	}
	return 0
}

// Reset makes the action immediately available again.
func (m *Manager) Reset(player, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{player, action}
	if _, ok := m.last[k]; ok {
		m.last[k] = time.Time{}
	}
}
