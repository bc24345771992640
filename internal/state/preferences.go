package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/streamer/internal/db"
)

// Preferences are the playback settings restored on the next start.
type Preferences struct {
	Volume float64
	Muted  bool
	Loop   bool
}

func getPreferences(conn *sql.DB) (*Preferences, error) {
	var p Preferences
	err := conn.QueryRow(`
		SELECT volume, muted, loop FROM playback_prefs WHERE id = 1
	`).Scan(&p.Volume, &p.Muted, &p.Loop)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func savePreferences(ctx context.Context, conn *sql.DB, p Preferences) error {
	return db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playback_prefs (id, volume, muted, loop, updated_at)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				volume = excluded.volume,
				muted = excluded.muted,
				loop = excluded.loop,
				updated_at = excluded.updated_at
		`, max(0, min(p.Volume, 1)), p.Muted, p.Loop, time.Now().Unix())
		return err
	})
}
