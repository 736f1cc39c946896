// Package framework maps test-framework names onto their reporter adapters
// and detects which framework a command line is about to run. Each adapter
// consumes one framework's machine-readable result stream and records
// canonical results on a collector; everything downstream of the adapter is
// framework-agnostic.
package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/testguard/testguard/internal/collector"
	"github.com/testguard/testguard/internal/framework/cargotest"
	"github.com/testguard/testguard/internal/framework/gotest"
	"github.com/testguard/testguard/internal/framework/phpunit"
	"github.com/testguard/testguard/internal/framework/pytest"
	"github.com/testguard/testguard/internal/framework/vitest"
)

// ErrUnknownFramework indicates a framework name with no registered adapter.
var ErrUnknownFramework = errors.New("unknown framework")

// Consumer reads one framework's native result stream until EOF, recording
// canonical test results on the collector it was built with. Consume returns
// an error only for stream-level failures; malformed individual events are
// degraded, never raised.
type Consumer interface {
	Name() string
	Consume(ctx context.Context, r io.Reader) error
}

// Factory builds a single-run consumer bound to the given collector.
type Factory func(c *collector.Collector, log logrus.FieldLogger) Consumer

var registry = map[string]Factory{
	gotest.Name: func(c *collector.Collector, log logrus.FieldLogger) Consumer {
		return gotest.New(c, log)
	},
	cargotest.Name: func(c *collector.Collector, log logrus.FieldLogger) Consumer {
		return cargotest.New(c, log)
	},
	pytest.Name: func(c *collector.Collector, log logrus.FieldLogger) Consumer {
		return pytest.New(c, log)
	},
	vitest.Name: func(c *collector.Collector, log logrus.FieldLogger) Consumer {
		return vitest.New(c, log)
	},
	phpunit.Name: func(c *collector.Collector, log logrus.FieldLogger) Consumer {
		return phpunit.New(c, log)
	},
}

// New builds the named framework's consumer.
func New(name string, c *collector.Collector, log logrus.FieldLogger) (Consumer, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFramework, name)
	}

	return factory(c, log), nil
}

// Names returns the supported framework names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
