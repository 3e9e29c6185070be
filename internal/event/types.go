package event

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
)

// Class names an event kind. Each class has at most one live instance.
type Class string

const (
	ClassAttack    Class = "attack"
	ClassWorldBoss Class = "world_boss"
)

// Classes lists every class in tick order.
var Classes = []Class{ClassAttack, ClassWorldBoss}

// ParseClass accepts the class names plus the "boss" shorthand.
func ParseClass(s string) (Class, bool) {
	switch s {
	case "attack", "raid":
		return ClassAttack, true
	case "boss", "world_boss", "worldboss":
		return ClassWorldBoss, true
	}
	return "", false
}

func (c Class) String() string {
	if c == ClassWorldBoss {
		return "world boss"
	}
	return string(c)
}

// State of one class slot.
type State int

const (
	Idle State = iota
	Announced
	ResolutionPending
	Resolved
)

func (s State) String() string {
	switch s {
	case Announced:
		return "announced"
	case ResolutionPending:
		return "resolution_pending"
	case Resolved:
		return "resolved"
	}
	return "idle"
}

// Reason an event window closed.
const (
	ReasonDeadline = "deadline"
	ReasonCapacity = "capacity"
)

// Announcement is published when an event opens.
type Announcement struct {
	ID       ulid.ULID `json:"id"`
	Class    Class     `json:"class"`
	Deadline time.Time `json:"deadline"`
	Capacity int       `json:"capacity,omitempty"`
	Forced   bool      `json:"forced"`
}

// Reward is one participant's share of an outcome.
type Reward struct {
	Player string `json:"player"`
	Damage int    `json:"damage,omitempty"`
	Honor  int    `json:"honor"`
	Rank   string `json:"rank,omitempty"` // set when the payout changed their rank
}

// Outcome is published exactly once per event.
type Outcome struct {
	ID         ulid.ULID       `json:"id"`
	Class      Class           `json:"class"`
	Victory    bool            `json:"victory"`
	Reason     string          `json:"reason"`
	Rewards    []Reward        `json:"rewards"`
	Defense    *combat.Defense `json:"defense,omitempty"`
	Capacity   int             `json:"capacity,omitempty"`
	Remaining  int             `json:"remaining,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// Status is a read-only view of a class slot.
type Status struct {
	ID           ulid.ULID
	Class        Class
	State        State
	Deadline     time.Time
	Participants int
	Capacity     int
	Remaining    int
}

// AlreadyActiveError rejects a trigger while the class slot is taken.
type AlreadyActiveError struct {
	Class Class
	State State
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("a %s is already %s", e.Class, e.State)
}
func (e *AlreadyActiveError) Kind() fault.Kind { return fault.StateConflict }

// NoActiveEventError rejects a join or strike outside an open window.
type NoActiveEventError struct {
	Class Class
}

func (e *NoActiveEventError) Error() string {
	return fmt.Sprintf("there is no active %s", e.Class)
}
func (e *NoActiveEventError) Kind() fault.Kind { return fault.StateConflict }

// DisabledError rejects a timer trigger while game features are off.
type DisabledError struct{}

func (DisabledError) Error() string    { return "game features are disabled" }
func (DisabledError) Kind() fault.Kind { return fault.StateConflict }
