// Package ledger records which files have been fully enriched so later runs
// can skip them.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one processed file.
type Entry struct {
	Path        string `gorm:"primaryKey"`
	ProcessedAt time.Time
}

// Ledger is an append-only set of processed paths backed by SQLite. The set
// is mirrored in memory so lookups never hit the database.
type Ledger struct {
	db   *gorm.DB
	mu   sync.RWMutex
	seen map[string]struct{}
}

// Open opens or creates the ledger database at path. ":memory:" gives a
// throwaway ledger.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// One writer; also keeps ":memory:" on a single shared connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}

	var paths []string
	if err := db.Model(&Entry{}).Pluck("path", &paths).Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	l := &Ledger{db: db, seen: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		l.seen[p] = struct{}{}
	}
	return l, nil
}

// Contains reports whether path was already processed.
func (l *Ledger) Contains(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[path]
	return ok
}

// Add records path as processed. Adding a known path is a no-op.
func (l *Ledger) Add(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[path]; ok {
		return nil
	}
	entry := Entry{Path: path, ProcessedAt: time.Now().UTC()}
	if err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return fmt.Errorf("recording %s: %w", path, err)
	}
	l.seen[path] = struct{}{}
	return nil
}

// Len returns the number of processed paths.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen)
}

// Close releases the database.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
