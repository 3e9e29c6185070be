// Package ranks keeps a player's rank role in line with their honor.
package ranks

import (
	"context"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Authority owns the role sets. Rejections should be *fault.ExternalAuthorityError.
type Authority interface {
	Roles(ctx context.Context, player string) ([]string, error)
	SetRoles(ctx context.Context, player string, roles []string) error
	RoleExists(ctx context.Context, name string) (bool, error)
}

// HonorLedger is the part of the ledger the synchronizer needs.
type HonorLedger interface {
	Honor(player string) int
	RaiseHonorTo(ctx context.Context, player string, floor int) (int, bool, error)
}

// Change describes what a Reconcile call did.
type Change struct {
	From    string // previous acquirable rank role, empty if none
	To      string
	Changed bool
}

// Synchronizer reconciles computed rank with the role authority.
type Synchronizer struct {
	rules  *rules.Rules
	auth   Authority
	ledger HonorLedger
	log    *zap.Logger
}

// NewSynchronizer returns a Synchronizer.
func NewSynchronizer(r *rules.Rules, auth Authority, ledger HonorLedger, log *zap.Logger) *Synchronizer {
	return &Synchronizer{rules: r, auth: auth, ledger: ledger, log: log}
}

// Reconcile gives the player the acquirable rank their honor earns. Players
// holding a pinned rank are left alone. Authority failures are logged and
// never returned; calling it again without an honor change writes nothing.
func (s *Synchronizer) Reconcile(ctx context.Context, player string) Change {
	log := s.log.With(zap.String("player", player))

	current, err := s.auth.Roles(ctx, player)
	if err != nil {
		log.Warn("could not read roles", zap.Error(err))
		return Change{}
	}
	if s.holdsPinned(current) {
		return Change{}
	}
	target, ok := s.rules.AcquirableTierFor(s.ledger.Honor(player))
	if !ok {
		return Change{}
	}
	targetRole := s.rules.Rank(target).Role
	if exists, err := s.auth.RoleExists(ctx, targetRole); err != nil || !exists {
		log.Warn("rank role unavailable", zap.String("role", targetRole), zap.Error(err))
		return Change{}
	}

	acquirable := make(map[string]bool)
	for _, role := range s.rules.AcquirableRoles() {
		acquirable[role] = true
	}
	var from string
	desired := make([]string, 0, len(current)+1)
	for _, role := range current {
		if acquirable[role] {
			if from == "" || s.tierOf(role) > s.tierOf(from) {
				from = role
			}
			continue
		}
		desired = append(desired, role)
	}
	desired = append(desired, targetRole)

	if sameSet(current, desired) {
		return Change{From: from, To: targetRole}
	}
	if err := s.auth.SetRoles(ctx, player, desired); err != nil {
		log.Warn("role authority rejected rank change",
			zap.String("role", targetRole),
			zap.Stringer("kind", fault.KindOf(err)),
			zap.Error(err))
		return Change{}
	}
	log.Info("rank updated", zap.String("from", from), zap.String("to", targetRole))
	return Change{From: from, To: targetRole, Changed: true}
}

// AdoptExternalPinnedBaseline raises the player's honor to the threshold of
// the highest rank in observed, then reconciles. Honor is never lowered.
func (s *Synchronizer) AdoptExternalPinnedBaseline(ctx context.Context, player string, observed []string) (Change, error) {
	if t, ok := s.rules.HighestTier(observed); ok {
		floor := s.rules.Rank(t).HonorThreshold
		honor, raised, err := s.ledger.RaiseHonorTo(ctx, player, floor)
		if err != nil {
			return Change{}, err
		}
		if raised {
			s.log.Info("honor raised to rank baseline",
				zap.String("player", player),
				zap.String("rank", s.rules.Rank(t).Name),
				zap.Int("honor", honor))
		}
	}
	return s.Reconcile(ctx, player), nil
}

// Tier is the player's effective rank: the highest tier among their roles,
// or the base tier.
func (s *Synchronizer) Tier(ctx context.Context, player string) rules.Tier {
	roles, err := s.auth.Roles(ctx, player)
	if err != nil {
		return 0
	}
	t, _ := s.rules.HighestTier(roles)
	return t
}

func (s *Synchronizer) holdsPinned(roles []string) bool {
	for _, role := range roles {
		if t, ok := s.rules.TierOfRole(role); ok && s.rules.Rank(t).Pinned {
			return true
		}
	}
	return false
}

func (s *Synchronizer) tierOf(role string) rules.Tier {
	t, _ := s.rules.TierOfRole(role)
	return t
}
