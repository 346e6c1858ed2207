// Package provider renders QR-code images, either by fetching them from a
// remote chart service or by drawing them locally.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInvalidArgument is returned when a provider is configured with an
// undefined error correction level, a negative margin or an unknown name.
var ErrInvalidArgument = errors.New("invalid argument")

// MimeTypePNG is the content type produced by every provider in this package.
const MimeTypePNG = "image/png"

// Provider names accepted by New.
const (
	NameGoogleCharts = "googlecharts"
	NameLocal        = "local"
)

// Provider produces the image bytes for a QR code holding text, size pixels
// square.
type Provider interface {
	GetImage(ctx context.Context, text string, size int) ([]byte, error)
	GetMimeType() string
}

type options struct {
	level      ErrorCorrectionLevel
	marginRows int
	policy     CertPolicy
	getter     Getter
	baseURL    string
	timeout    time.Duration
	log        *slog.Logger
}

// Option configures a provider at construction.
type Option func(*options)

// WithErrorCorrectionLevel sets the redundancy level. Default is Low.
func WithErrorCorrectionLevel(l ErrorCorrectionLevel) Option {
	return func(o *options) { o.level = l }
}

// WithMarginRows sets the quiet-zone width in grid rows. Default is 1.
func WithMarginRows(n int) Option {
	return func(o *options) { o.marginRows = n }
}

// WithCertPolicy installs a custom certificate validation policy on the
// built-in HTTP transport. It is ignored when WithGetter is also used.
func WithCertPolicy(p CertPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithGetter replaces the HTTP transport.
func WithGetter(g Getter) Option {
	return func(o *options) { o.getter = g }
}

// WithBaseURL overrides the chart endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithTimeout bounds each request made by the built-in HTTP transport.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger used for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) (*options, error) {
	o := &options{
		level:      Low,
		marginRows: 1,
		baseURL:    GoogleChartsBaseURL,
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if !o.level.Valid() {
		return nil, fmt.Errorf("%w: undefined error correction level %d", ErrInvalidArgument, int(o.level))
	}
	if o.marginRows < 0 {
		return nil, fmt.Errorf("%w: margin rows must be >= 0, got %d", ErrInvalidArgument, o.marginRows)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	return o, nil
}

// New constructs the provider registered under name.
func New(name string, opts ...Option) (Provider, error) {
	switch name {
	case NameGoogleCharts:
		return NewGoogleCharts(opts...)
	case NameLocal:
		return NewLocal(opts...)
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidArgument, name)
}
