package kv

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uchsash/medistore/pkg/logger"
)

const defaultPollInterval = time.Second

type kvEntry struct {
	EntryKey   string `gorm:"primaryKey"`
	EntryValue string
	Version    int64
	Origin     string
	UpdatedAt  time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

// SQL stores entries in the kv_entries table. SQL has no push notifications, so
// watched keys are polled and a bumped version written by another origin counts
// as an external change.
type SQL struct {
	db       *gorm.DB
	logg     *logger.Logger
	origin   string
	interval time.Duration
	watch    watchers

	mu      sync.Mutex
	seen    map[string]int64
	started bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSQL(db *gorm.DB, pollInterval time.Duration, logg *logger.Logger) *SQL {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &SQL{
		db:       db,
		logg:     logg,
		origin:   newOrigin(),
		interval: pollInterval,
		seen:     map[string]int64{},
	}
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.EntryValue, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC()
	entry := kvEntry{EntryKey: key, EntryValue: value, Version: 1, Origin: s.origin, UpdatedAt: now}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"entry_value": value,
			"version":     gorm.Expr("kv_entries.version + 1"),
			"origin":      s.origin,
			"updated_at":  now,
		}),
	}).Create(&entry).Error
}

func (s *SQL) Watch(key string, fn func(Change)) func() {
	first := !s.watch.watching(key)
	cancel := s.watch.add(key, fn)
	if first {
		s.remember(context.Background(), key)
	}
	s.startPolling()
	return cancel
}

// remember records the current version so only later writes are reported.
func (s *SQL) remember(ctx context.Context, key string) {
	var entry kvEntry
	err := s.db.WithContext(ctx).Select("entry_key", "version").Where("entry_key = ?", key).Take(&entry).Error
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.seen[key] = 0
		return
	}
	s.seen[key] = entry.Version
}

func (s *SQL) startPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if err := s.poll(context.Background()); err != nil {
					s.logg.Warn(s.logg.WithField(context.Background(), "error", err.Error()), "kv.sql.poll_failed")
				}
			}
		}
	}()
}

func (s *SQL) poll(ctx context.Context) error {
	keys := s.watch.keys()
	if len(keys) == 0 {
		return nil
	}

	var entries []kvEntry
	if err := s.db.WithContext(ctx).
		Select("entry_key", "version", "origin").
		Where("entry_key IN ?", keys).
		Find(&entries).Error; err != nil {
		return err
	}

	var changes []Change
	s.mu.Lock()
	for _, e := range entries {
		if e.Version == s.seen[e.EntryKey] {
			continue
		}
		s.seen[e.EntryKey] = e.Version
		if e.Origin != s.origin {
			changes = append(changes, Change{Key: e.EntryKey, Origin: e.Origin})
		}
	}
	s.mu.Unlock()

	for _, c := range changes {
		s.watch.notify(c)
	}
	return nil
}

// Close stops polling. The database handle is owned by the caller.
func (s *SQL) Close() error {
	s.mu.Lock()
	started := s.started
	s.started = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if started {
		close(stop)
		<-done
	}
	return nil
}
