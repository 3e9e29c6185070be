// Package ledger owns every player's honor, skills, stats and inventory. It is
// the only writer of those tables and persists each mutation before returning.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Ledger is the progression ledger.
type Ledger struct {
	store persistence.Store
	log   *zap.Logger

	mu        sync.Mutex
	honor     map[string]int
	skills    map[string]skillsRecord
	inventory map[string]Inventory
}

// Open loads the three player tables from the store.
func Open(ctx context.Context, store persistence.Store, log *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		store:     store,
		log:       log,
		honor:     make(map[string]int),
		skills:    make(map[string]skillsRecord),
		inventory: make(map[string]Inventory),
	}
	if err := loadTable(ctx, store, persistence.TableHonor, l.honor); err != nil {
		return nil, err
	}
	if err := loadTable(ctx, store, persistence.TableSkills, l.skills); err != nil {
		return nil, err
	}
	if err := loadTable(ctx, store, persistence.TableInventory, l.inventory); err != nil {
		return nil, err
	}
	log.Info("ledger loaded",
		zap.Int("honor_records", len(l.honor)),
		zap.Int("skill_records", len(l.skills)),
		zap.Int("inventory_records", len(l.inventory)))
	return l, nil
}

func loadTable[T any](ctx context.Context, store persistence.Store, table persistence.Table, into map[string]T) error {
	records, err := store.Load(ctx, table)
	if err != nil {
		return &fault.PersistenceError{Op: "load " + string(table), Err: err}
	}
	for key, raw := range records {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return &fault.PersistenceError{Op: fmt.Sprintf("decode %s/%s", table, key), Err: err}
		}
		into[key] = v
	}
	return nil
}

func (l *Ledger) save(ctx context.Context, table persistence.Table, player string, value any) error {
	if err := l.store.Save(ctx, table, player, value); err != nil {
		l.log.Error("persist failed", zap.String("table", string(table)), zap.String("player", player), zap.Error(err))
		return &fault.PersistenceError{Op: "save " + string(table), Err: err}
	}
	return nil
}

// Honor returns the player's honor, 0 if never seen.
func (l *Ledger) Honor(player string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.honor[player]
}

// AdjustHonor adds delta and persists. The result never drops below zero.
func (l *Ledger) AdjustHonor(ctx context.Context, player string, delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.honor[player]
	var next int
	switch {
	case delta > 0 && cur > math.MaxInt-delta:
		next = math.MaxInt
	case cur+delta < 0:
		next = 0
	default:
		next = cur + delta
	}
	if err := l.putHonorLocked(ctx, player, next); err != nil {
		return l.honor[player], err
	}
	return next, nil
}

// SetHonor overwrites the player's honor.
func (l *Ledger) SetHonor(ctx context.Context, player string, value int) error {
	if value < 0 {
		return fault.Invalid("honor cannot be negative (got %d)", value)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.putHonorLocked(ctx, player, value)
}

// RaiseHonorTo lifts the player's honor to at least floor. It never lowers
// honor and reports whether a write happened.
func (l *Ledger) RaiseHonorTo(ctx context.Context, player string, floor int) (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.honor[player]
	if cur >= floor {
		return cur, false, nil
	}
	if err := l.putHonorLocked(ctx, player, floor); err != nil {
		return cur, false, err
	}
	return floor, true, nil
}

func (l *Ledger) putHonorLocked(ctx context.Context, player string, value int) error {
	if err := l.save(ctx, persistence.TableHonor, player, value); err != nil {
		return err
	}
	l.honor[player] = value
	return nil
}

func (l *Ledger) skillsLocked(player string) skillsRecord {
	rec, ok := l.skills[player]
	if !ok {
		return skillsRecord{Skills: DefaultSkills()}
	}
	return rec
}

// Skills returns the player's skill levels.
func (l *Ledger) Skills(player string) SkillSet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skillsLocked(player).Skills
}

// Stats returns the player's patrol counters.
func (l *Ledger) Stats(player string) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skillsLocked(player).Stats
}

// TrainSkill raises a skill by one. A maxed skill returns *AtCapError.
func (l *Ledger) TrainSkill(ctx context.Context, player string, sk rules.Skill) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.skillsLocked(player)
	cur := rec.Skills.Level(sk)
	if cur >= rules.MaxSkill {
		return cur, &AtCapError{Skill: sk}
	}
	rec.Skills = rec.Skills.With(sk, cur+1)
	if err := l.putSkillsLocked(ctx, player, rec); err != nil {
		return cur, err
	}
	return cur + 1, nil
}

// SetSkill overwrites one skill level.
func (l *Ledger) SetSkill(ctx context.Context, player string, sk rules.Skill, level int) error {
	if level < rules.MinSkill || level > rules.MaxSkill {
		return fault.Invalid("skill level must be between %d and %d (got %d)", rules.MinSkill, rules.MaxSkill, level)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.skillsLocked(player)
	rec.Skills = rec.Skills.With(sk, level)
	return l.putSkillsLocked(ctx, player, rec)
}

// RecordPatrol updates the patrol counters after an encounter.
func (l *Ledger) RecordPatrol(ctx context.Context, player string, won bool) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.skillsLocked(player)
	if won {
		rec.Stats.PatrolWins++
		rec.Stats.KillStreak++
	} else {
		rec.Stats.KillStreak = 0
	}
	if err := l.putSkillsLocked(ctx, player, rec); err != nil {
		return l.skillsLocked(player).Stats, err
	}
	return rec.Stats, nil
}

func (l *Ledger) putSkillsLocked(ctx context.Context, player string, rec skillsRecord) error {
	if err := l.save(ctx, persistence.TableSkills, player, rec); err != nil {
		return err
	}
	l.skills[player] = rec
	return nil
}

// Inventory returns a copy of the player's inventory.
func (l *Ledger) Inventory(player string) Inventory {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inventory[player].clone()
}

// AddMaterials credits every material in the map.
func (l *Ledger) AddMaterials(ctx context.Context, player string, materials map[string]int) error {
	if err := checkCounts(materials); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := l.inventory[player].clone()
	for name, n := range materials {
		inv.Materials[name] += n
	}
	return l.putInventoryLocked(ctx, player, inv)
}

// DebitMaterials removes every material in the map, or none of them.
func (l *Ledger) DebitMaterials(ctx context.Context, player string, materials map[string]int) error {
	return l.Craft(ctx, player, materials, "")
}

// Craft debits the materials and credits one unit of item in a single record
// write. An empty item only debits. Nothing changes on a shortfall.
func (l *Ledger) Craft(ctx context.Context, player string, materials map[string]int, item string) error {
	if err := checkCounts(materials); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := l.inventory[player].clone()
	shortfall := make(map[string]int)
	for name, n := range materials {
		if have := inv.Materials[name]; have < n {
			shortfall[name] = n - have
		}
	}
	if len(shortfall) > 0 {
		return &InsufficientMaterialsError{Shortfall: shortfall}
	}
	for name, n := range materials {
		inv.Materials[name] -= n
	}
	if item != "" {
		inv.CraftedItems[item]++
	}
	return l.putInventoryLocked(ctx, player, inv)
}

// AddCraftedItem credits count units of a crafted item.
func (l *Ledger) AddCraftedItem(ctx context.Context, player, item string, count int) error {
	if count <= 0 {
		return fault.Invalid("count must be positive (got %d)", count)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := l.inventory[player].clone()
	inv.CraftedItems[item] += count
	return l.putInventoryLocked(ctx, player, inv)
}

// ConsumeCraftedItem removes count units of a crafted item.
func (l *Ledger) ConsumeCraftedItem(ctx context.Context, player, item string, count int) error {
	if count <= 0 {
		return fault.Invalid("count must be positive (got %d)", count)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := l.inventory[player].clone()
	if have := inv.CraftedItems[item]; have < count {
		return &InsufficientItemError{Item: item, Have: have, Want: count}
	}
	inv.CraftedItems[item] -= count
	return l.putInventoryLocked(ctx, player, inv)
}

func (l *Ledger) putInventoryLocked(ctx context.Context, player string, inv Inventory) error {
	if err := l.save(ctx, persistence.TableInventory, player, inv); err != nil {
		return err
	}
	l.inventory[player] = inv
	return nil
}

func checkCounts(m map[string]int) error {
	for name, n := range m {
		if n < 0 {
			return fault.Invalid("count for %s cannot be negative (got %d)", name, n)
		}
	}
	return nil
}

// Record returns everything known about a player.
func (l *Ledger) Record(player string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.skillsLocked(player)
	return Record{
		Player:    player,
		Honor:     l.honor[player],
		Skills:    rec.Skills,
		Stats:     rec.Stats,
		Inventory: l.inventory[player].clone(),
	}
}

// Leaderboard returns the top n players by honor, ties broken by player id.
func (l *Ledger) Leaderboard(n int) []Standing {
	l.mu.Lock()
	out := make([]Standing, 0, len(l.honor))
	for p, h := range l.honor {
		out = append(out, Standing{Player: p, Honor: h})
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Honor != out[j].Honor {
			return out[i].Honor > out[j].Honor
		}
		return out[i].Player < out[j].Player
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
