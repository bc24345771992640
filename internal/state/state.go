package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "streamer"
	dbFileName   = "streamer.db"
	saveDebounce = 500 * time.Millisecond
)

// Manager persists playback preferences in SQLite. Saves are debounced so
// rapid volume changes produce one write.
type Manager struct {
	db  *sql.DB
	log logrus.FieldLogger

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Preferences
}

// Open opens the database in the XDG data directory.
func Open(log logrus.FieldLogger) (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath, log)
}

// OpenPath opens (or creates) the database at path.
func OpenPath(path string, log logrus.FieldLogger) (*Manager, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: writes are tiny and :memory: databases are
	// per-connection.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db, log: log.WithField("component", "state")}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	// Flush pending state
	if pending != nil {
		if err := savePreferences(context.Background(), m.db, *pending); err != nil {
			m.log.WithError(err).Warn("flush preferences")
		}
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// GetPreferences returns the saved preferences, or nil if none were saved.
// A save still waiting for its debounce is returned as is.
func (m *Manager) GetPreferences() (*Preferences, error) {
	m.saveMu.Lock()
	if m.pending != nil {
		p := *m.pending
		m.saveMu.Unlock()
		return &p, nil
	}
	m.saveMu.Unlock()
	return getPreferences(m.db)
}

// SavePreferences schedules prefs to be written after a short delay,
// replacing any save not yet written.
func (m *Manager) SavePreferences(prefs Preferences) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &prefs

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			if err := savePreferences(context.Background(), m.db, *pending); err != nil {
				m.log.WithError(err).Warn("save preferences")
			}
		}
	})
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
