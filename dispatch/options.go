package dispatch

import (
	"go.uber.org/zap"

	"github.com/rovshanmuradov/eventkit/event"
)

type options struct {
	logger         *zap.Logger
	createOnAccess bool
	createOnFire   bool
	eventNames     []string
	eventOptions   []event.Option
}

func defaultOptions() options {
	return options{
		logger:       zap.NewNop(),
		createOnFire: true,
	}
}

// Option configures a dispatch at construction time.
type Option func(*options)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCreateOnAccess makes Get create missing events instead of reporting a
// miss. Off by default.
func WithCreateOnAccess(create bool) Option {
	return func(o *options) { o.createOnAccess = create }
}

// WithCreateOnFire controls whether firing an unknown event creates it. On by
// default; when off, firing an unknown event is a no-op reported to the
// caller.
func WithCreateOnFire(create bool) Option {
	return func(o *options) { o.createOnFire = create }
}

// WithEvents pre-creates the named events at construction.
func WithEvents(names ...string) Option {
	return func(o *options) { o.eventNames = append(o.eventNames, names...) }
}

// WithEventOptions passes options through to every event the dispatch
// creates.
func WithEventOptions(opts ...event.Option) Option {
	return func(o *options) { o.eventOptions = append(o.eventOptions, opts...) }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
