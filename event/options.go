package event

import (
	"go.uber.org/zap"
)

// DefaultPriority is the priority used when none is given.
const DefaultPriority = 10

// DefaultWorkerLimit bounds how many handler invocations an async event runs
// at once when no limit is configured.
const DefaultWorkerLimit = 8

type options struct {
	logger          *zap.Logger
	allowDuplicates bool
	defaultPriority int
	failFast        bool
	workerLimit     int64
}

func defaultOptions() options {
	return options{
		logger:          zap.NewNop(),
		defaultPriority: DefaultPriority,
		workerLimit:     DefaultWorkerLimit,
	}
}

// Option configures an Event at construction time.
type Option func(*options)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAllowDuplicates controls whether registering the same handler twice is
// allowed. Disallowed by default: Add returns ErrDuplicateHandler.
func WithAllowDuplicates(allow bool) Option {
	return func(o *options) { o.allowDuplicates = allow }
}

// WithDefaultPriority sets the priority used by Add. Lower priorities fire
// first.
func WithDefaultPriority(priority int) Option {
	return func(o *options) { o.defaultPriority = priority }
}

// WithFailFast makes Gather abort on the first failed handler, returning an
// *AggregationError. The default collects all failures alongside successes.
func WithFailFast(failFast bool) Option {
	return func(o *options) { o.failFast = failFast }
}

// WithWorkerLimit bounds how many handler invocations an async event runs
// concurrently.
func WithWorkerLimit(limit int64) Option {
	return func(o *options) {
		if limit > 0 {
			o.workerLimit = limit
		}
	}
}
