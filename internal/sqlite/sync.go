// This file implements the sync extension point: collecting locally
// pending rows and handing them to a pluggable synchronizer.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// PendingRow is one locally mutated row awaiting reconciliation.
type PendingRow struct {
	Table  string       `json:"table"`
	Record types.Record `json:"record"`
}

// PendingBatch is what a synchronizer receives on push.
type PendingBatch struct {
	ID        string       `json:"id"`
	DeviceID  string       `json:"device_id"`
	CreatedAt time.Time    `json:"created_at"`
	Rows      []PendingRow `json:"rows"`
}

// RemoteChange is a row reported by the server. Sync returns these to the
// caller; it does not apply them.
type RemoteChange struct {
	Table  string       `json:"table"`
	Op     string       `json:"op"`
	Record types.Record `json:"record"`
}

// Synchronizer talks to a remote service. None ships with the store.
type Synchronizer interface {
	Push(ctx context.Context, batch PendingBatch) error
	Pull(ctx context.Context) ([]RemoteChange, error)
}

// SyncReport summarizes one Sync call.
type SyncReport struct {
	BatchID string         `json:"batch_id,omitempty"`
	Pending map[string]int `json:"pending"`
	Pushed  int            `json:"pushed"`
	Pulled  []RemoteChange `json:"pulled,omitempty"`
}

// Total returns the number of pending rows across tables.
func (r SyncReport) Total() int {
	n := 0
	for _, c := range r.Pending {
		n += c
	}
	return n
}

// PendingRows collects pending rows of every schema table, in declaration
// order.
func (s *Store) PendingRows() []PendingRow {
	var rows []PendingRow
	for _, t := range s.schema.Tables() {
		for _, rec := range s.Table(t.Name).Pending() {
			rows = append(rows, PendingRow{Table: t.Name, Record: rec})
		}
	}
	return rows
}

// Sync reports the pending rows and, when a synchronizer is configured,
// pushes them as one batch and pulls remote changes. Rows keep their
// pending status; marking them synced belongs to the synchronizer's
// caller.
func (s *Store) Sync(ctx context.Context) (SyncReport, error) {
	if !s.Ready() {
		return SyncReport{}, types.ErrStoreUnavailable
	}

	rows := s.PendingRows()
	report := SyncReport{Pending: make(map[string]int)}
	for _, r := range rows {
		report.Pending[r.Table]++
	}
	if s.syncer == nil {
		s.log.Debug("no synchronizer configured", "pending", len(rows))
		return report, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return report, fmt.Errorf("generating batch id: %w", err)
	}
	deviceID, err := s.deviceID()
	if err != nil {
		return report, err
	}
	batch := PendingBatch{
		ID:        id.String(),
		DeviceID:  deviceID,
		CreatedAt: s.now().UTC(),
		Rows:      rows,
	}
	if err := s.syncer.Push(ctx, batch); err != nil {
		return report, fmt.Errorf("pushing batch %s: %w", batch.ID, err)
	}
	report.BatchID = batch.ID
	report.Pushed = len(rows)

	changes, err := s.syncer.Pull(ctx)
	if err != nil {
		return report, fmt.Errorf("pulling changes: %w", err)
	}
	report.Pulled = changes
	s.log.Info("sync batch pushed", "batch", batch.ID, "rows", len(rows), "pulled", len(changes))
	return report, nil
}

// deviceID returns the persistent device identifier, creating it on first
// use.
func (s *Store) deviceID() (string, error) {
	cfg := s.Config()
	if v, ok := cfg.Get(types.SettingDeviceID); ok && v != "" {
		return v, nil
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating device id: %w", err)
	}
	if !cfg.Set(types.SettingDeviceID, id.String()) {
		return "", fmt.Errorf("storing device id: %w", types.ErrStoreUnavailable)
	}
	return id.String(), nil
}
