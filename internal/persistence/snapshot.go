package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a point-in-time copy of every table.
type Snapshot struct {
	Version   int                                  `json:"version"`
	CreatedAt time.Time                            `json:"created_at"`
	Tables    map[Table]map[string]json.RawMessage `json:"tables"`
}

// Export writes a zstd compressed snapshot of every table to w.
func Export(ctx context.Context, s Store, w io.Writer, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: now.UTC(),
		Tables:    make(map[Table]map[string]json.RawMessage, len(Tables)),
	}
	for _, t := range Tables {
		records, err := s.Load(ctx, t)
		if err != nil {
			return nil, err
		}
		snap.Tables[t] = records
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		enc.Close()
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ReadSnapshot decodes a snapshot written by Export.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

// Import writes every record of the snapshot into s and returns the record count.
func Import(ctx context.Context, s Store, snap *Snapshot) (int, error) {
	n := 0
	for _, t := range Tables {
		for key, value := range snap.Tables[t] {
			if err := s.Save(ctx, t, key, value); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
