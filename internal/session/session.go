// Package session wires one reporting run together: it opens the configured
// result store, builds the collector and the framework consumer, installs
// the interruption hook, and drives the stream from start to terminal write.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/collector"
	"github.com/testguard/testguard/internal/config"
	"github.com/testguard/testguard/internal/framework"
	"github.com/testguard/testguard/internal/storage"
)

// Session is single-run-scoped, like the collector it owns.
type Session struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	store     storage.Store
	collector *collector.Collector
	consumer  framework.Consumer
}

// New creates a session for the named framework using the configured
// storage backend.
func New(cfg *config.Config, frameworkName string, log logrus.FieldLogger) (*Session, error) {
	store, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	c := collector.New(store, log)

	consumer, err := framework.New(frameworkName, c, log)
	if err != nil {
		_ = store.Close()

		return nil, err
	}

	return &Session{
		cfg:       cfg,
		log:       log.WithField("component", "session").WithField("run", c.RunID()),
		store:     store,
		collector: c,
		consumer:  consumer,
	}, nil
}

// OpenStore opens the result store selected by the configuration.
func OpenStore(cfg *config.Config, log logrus.FieldLogger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendBadger:
		return storage.NewBadgerStore(cfg.BadgerDir(), log)
	case config.BackendFile:
		return storage.NewFileStore(cfg.DataDir(), log), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownBackend, cfg.StorageBackend)
	}
}

// Report consumes the framework's native stream from in until EOF, then
// performs the terminal write. When echo is non-nil every raw byte is copied
// to it as read, so the reporter can sit inside a pipeline without hiding
// the tool's own output. The interruption hook is armed for the duration.
//
// A stream-level consume error does not discard the run: whatever was
// accumulated is still completed and persisted, and the error is returned
// alongside any completion error.
func (s *Session) Report(ctx context.Context, in io.Reader, echo io.Writer) error {
	stop := collector.NotifyInterrupt(s.collector)
	defer stop()

	if echo != nil {
		in = io.TeeReader(in, echo)
	}

	consumeErr := s.consumer.Consume(ctx, in)
	if consumeErr != nil {
		s.log.WithError(consumeErr).Warn("result stream ended abnormally")
	}

	if err := s.collector.Complete(ctx); err != nil {
		return errors.Join(consumeErr, err)
	}

	return consumeErr
}

// Results returns the current canonical snapshot, mainly for tests and the
// run command's summary line.
func (s *Session) Results() *collector.Collector {
	return s.collector
}

// Close releases the store.
func (s *Session) Close() error {
	return s.store.Close()
}
