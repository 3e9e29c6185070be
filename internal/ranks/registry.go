package ranks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
)

// ChangeFunc is told about role sets changed by someone other than the
// synchronizer, such as an admin grant.
type ChangeFunc func(ctx context.Context, player string, roles []string)

// Registry is an in-process role authority for chat platforms that have no
// role model of their own. Role sets live in the roles table.
type Registry struct {
	store persistence.Store
	log   *zap.Logger
	known map[string]bool

	mu       sync.Mutex
	roles    map[string][]string
	onChange ChangeFunc
}

// OpenRegistry loads the roles table. known lists every role that exists.
func OpenRegistry(ctx context.Context, store persistence.Store, known []string, log *zap.Logger) (*Registry, error) {
	r := &Registry{
		store: store,
		log:   log,
		known: make(map[string]bool, len(known)),
		roles: make(map[string][]string),
	}
	for _, k := range known {
		r.known[k] = true
	}
	records, err := store.Load(ctx, persistence.TableRoles)
	if err != nil {
		return nil, &fault.PersistenceError{Op: "load roles", Err: err}
	}
	for player, raw := range records {
		var roles []string
		if err := json.Unmarshal(raw, &roles); err != nil {
			return nil, &fault.PersistenceError{Op: "decode roles/" + player, Err: err}
		}
		r.roles[player] = roles
	}
	return r, nil
}

// OnChange registers the external change hook. Pass nil to remove it.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Roles returns a copy of the player's role set.
func (r *Registry) Roles(_ context.Context, player string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.roles[player]...), nil
}

// RoleExists reports whether name is a known role.
func (r *Registry) RoleExists(_ context.Context, name string) (bool, error) {
	return r.known[name], nil
}

// SetRoles replaces the player's role set in one write.
func (r *Registry) SetRoles(ctx context.Context, player string, roles []string) error {
	for _, role := range roles {
		if !r.known[role] {
			return &fault.ExternalAuthorityError{Player: player, Reason: fmt.Sprintf("role %q does not exist", role)}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.putLocked(ctx, player, roles)
}

// Grant adds one role as an outside change and notifies the change hook.
func (r *Registry) Grant(ctx context.Context, player, role string) error {
	if !r.known[role] {
		return fault.Invalid("unknown role %q", role)
	}
	return r.mutate(ctx, player, func(cur []string) []string {
		for _, have := range cur {
			if have == role {
				return cur
			}
		}
		return append(cur, role)
	})
}

// Revoke removes one role as an outside change and notifies the change hook.
func (r *Registry) Revoke(ctx context.Context, player, role string) error {
	return r.mutate(ctx, player, func(cur []string) []string {
		out := cur[:0:0]
		for _, have := range cur {
			if have != role {
				out = append(out, have)
			}
		}
		return out
	})
}

func (r *Registry) mutate(ctx context.Context, player string, fn func([]string) []string) error {
	r.mu.Lock()
	cur := append([]string(nil), r.roles[player]...)
	next := fn(cur)
	if sameSet(cur, next) {
		r.mu.Unlock()
		return nil
	}
	if err := r.putLocked(ctx, player, next); err != nil {
		r.mu.Unlock()
		return err
	}
	hook := r.onChange
	r.mu.Unlock()

	if hook != nil {
		hook(ctx, player, append([]string(nil), next...))
	}
	return nil
}

func (r *Registry) putLocked(ctx context.Context, player string, roles []string) error {
	roles = append([]string(nil), roles...)
	if err := r.store.Save(ctx, persistence.TableRoles, player, roles); err != nil {
		return &fault.PersistenceError{Op: "save roles", Err: err}
	}
	r.roles[player] = roles
	r.log.Debug("roles updated", zap.String("player", player), zap.Strings("roles", roles))
	return nil
}

// Players lists every player with a stored role set, sorted.
func (r *Registry) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.roles))
	for p := range r.roles {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
