package hotswap

import (
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"
)

// FactoryOption configures NewFactory.
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	doc         Document
	stackDoc    StackDocument
	logger      *slog.Logger
	placeholder bool
}

func newFactoryOptions(opts []FactoryOption) *factoryOptions {
	o := &factoryOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDocument selects tree anchoring: instances are recreated at a
// stable marker node allocated from doc.
func WithDocument(doc Document) FactoryOption {
	return func(o *factoryOptions) {
		o.doc = doc
	}
}

// WithStackDocument selects navigation-stack anchoring: page-shaped
// mount targets are rerendered through the host's navigation primitives,
// anything else falls back to tree anchoring.
func WithStackDocument(doc StackDocument) FactoryOption {
	return func(o *factoryOptions) {
		o.stackDoc = doc
	}
}

// WithLogger sets the logger for diagnostics (no-op rerenders, benign
// races, rollbacks). Defaults to slog.Default.
func WithLogger(logger *slog.Logger) FactoryOption {
	return func(o *factoryOptions) {
		o.logger = logger
	}
}

// WithPlaceholderOnError selects the soft rollback variant: when
// construction fails with no last-known-good implementation, an inert
// Placeholder instance displaying the error is mounted instead of the
// proxy being destroyed. The next successful reload replaces it.
func WithPlaceholderOnError() FactoryOption {
	return func(o *factoryOptions) {
		o.placeholder = true
	}
}

// HostOptions are reload-time overrides for subsequent instance
// constructions, supplied by the reload driver as a raw map.
type HostOptions struct {
	Props   map[string]any `mapstructure:"props"`
	Intro   bool           `mapstructure:"intro"`
	Hydrate bool           `mapstructure:"hydrate"`
}

// DecodeHostOptions decodes a raw host option map. Unknown keys are an
// error: a typoed option silently ignored would surface as a reload that
// "didn't take".
func DecodeHostOptions(m map[string]any) (HostOptions, error) {
	var ho HostOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &ho,
		ErrorUnused: true,
	})
	if err != nil {
		return HostOptions{}, fmt.Errorf("hotswap: build host options decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return HostOptions{}, fmt.Errorf("hotswap: decode host options: %w", err)
	}
	return ho, nil
}
