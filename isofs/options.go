package isofs

import (
	"github.com/disclens/isofs/internal/logging"
	"github.com/go-logr/logr"
)

// Options configures how Open resolves and reads the image, following the
// teacher's functional-options shape from iso.go.
type Options struct {
	logger           logr.Logger
	preferJoliet     bool
	rockRidgeEnabled bool
	stripVersionInfo bool
}

// Option mutates Options; construct one with the With* functions below.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		logger:           logging.Discard(),
		preferJoliet:     true,
		rockRidgeEnabled: true,
		stripVersionInfo: true,
	}
}

// WithLogger sets the logr.Logger used for decode diagnostics. The
// default discards everything, matching iso-kit's Open.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// WithPreferJoliet controls whether a confirmed Joliet supplementary
// descriptor outranks Rock Ridge when both are present. Defaults to true.
// Disable it to prefer Rock Ridge's POSIX metadata and symlinks over
// Joliet's long Unicode names when a disc carries both.
func WithPreferJoliet(enabled bool) Option {
	return func(o *Options) { o.preferJoliet = enabled }
}

// WithRockRidgeEnabled controls whether SUSP/Rock Ridge entries are
// parsed and applied at all, independent of which variant ends up
// selected for directory traversal. Defaults to true.
func WithRockRidgeEnabled(enabled bool) Option {
	return func(o *Options) { o.rockRidgeEnabled = enabled }
}

// WithStripVersionInfo controls whether the ";N" ISO9660 version suffix
// is stripped from file names. Defaults to true.
func WithStripVersionInfo(enabled bool) Option {
	return func(o *Options) { o.stripVersionInfo = enabled }
}
