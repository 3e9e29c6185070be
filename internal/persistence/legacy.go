package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ReadLegacyXP decodes the original bot's xp.json ({"<user id>": xp}).
// An empty file is an empty ledger, as it was for the original bot.
func ReadLegacyXP(r io.Reader) (map[string]int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode legacy xp file: %w", err)
	}
	return out, nil
}
