package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	latestKey     = "test/latest"
	runKeyPrefix  = "runs/"
	runHistoryTTL = 7 * 24 * time.Hour
)

// BadgerStore persists run outputs in an embedded BadgerDB. Besides the
// latest document it keeps a TTL-bounded history entry per run, keyed by
// timestamp and run ID, so past runs can be inspected after the fact.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// badgerLogAdapter routes BadgerDB's internal logging through logrus at
// debug level; badger is chatty and none of it is user-facing.
type badgerLogAdapter struct {
	log logrus.FieldLogger
}

func (l *badgerLogAdapter) Errorf(format string, args ...interface{})   { l.log.Debugf(format, args...) }
func (l *badgerLogAdapter) Warningf(format string, args ...interface{}) { l.log.Debugf(format, args...) }
func (l *badgerLogAdapter) Infof(format string, args ...interface{})    { l.log.Debugf(format, args...) }
func (l *badgerLogAdapter) Debugf(format string, args ...interface{})   { l.log.Debugf(format, args...) }

// NewBadgerStore opens (or creates) a badger database at path.
func NewBadgerStore(path string, log logrus.FieldLogger) (*BadgerStore, error) {
	storeLog := log.WithField("component", "badger_store")

	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogAdapter{log: storeLog}).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store at %s: %w", path, err)
	}

	return &BadgerStore{db: db, log: storeLog}, nil
}

// SaveTest replaces the latest run output and appends a history entry.
func (s *BadgerStore) SaveTest(_ context.Context, data []byte) error {
	if s.db.IsClosed() {
		return ErrClosed
	}

	historyKey := fmt.Sprintf("%s%d/%s", runKeyPrefix, time.Now().UnixNano(), uuid.NewString())

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(latestKey), data); err != nil {
			return err
		}

		entry := badger.NewEntry([]byte(historyKey), data).WithTTL(runHistoryTTL)

		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("saving run output: %w", err)
	}

	s.log.WithField("bytes", len(data)).Debug("saved test results")

	return nil
}

// LoadTest returns the latest persisted run output.
func (s *BadgerStore) LoadTest(_ context.Context) ([]byte, error) {
	if s.db.IsClosed() {
		return nil, ErrClosed
	}

	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNoResults
		}

		return nil, fmt.Errorf("loading run output: %w", err)
	}

	return data, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing badger store: %w", err)
	}

	return nil
}
