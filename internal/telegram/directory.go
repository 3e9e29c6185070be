package telegram

import (
	"strconv"
	"strings"
	"sync"
)

// Directory learns @usernames from the messages it sees so commands can
// mention players. Player ids are Telegram user ids.
type Directory struct {
	mu     sync.RWMutex
	byName map[string]string // lower-case username -> id
	names  map[string]string // id -> display name
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{byName: make(map[string]string), names: make(map[string]string)}
}

// PlayerID is the player id of a Telegram user.
func PlayerID(u User) string {
	return strconv.FormatInt(u.ID, 10)
}

// Learn records a user's username and display name.
func (d *Directory) Learn(u User) {
	id := PlayerID(u)
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.Username != "" {
		d.byName[strings.ToLower(u.Username)] = id
		d.names[id] = "@" + u.Username
		return
	}
	if u.FirstName != "" {
		d.names[id] = u.FirstName
	}
}

// Resolve maps "@username" or a numeric id to a player id.
func (d *Directory) Resolve(mention string) (string, bool) {
	name := strings.ToLower(strings.TrimPrefix(mention, "@"))
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, ok := d.byName[name]; ok {
		return id, true
	}
	if _, err := strconv.ParseInt(name, 10, 64); err == nil {
		return name, true
	}
	return "", false
}

// Name returns the best known display name for a player id.
func (d *Directory) Name(player string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n, ok := d.names[player]; ok {
		return n
	}
	return player
}
