package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

// GoogleChartsBaseURL is the chart endpoint queried by GoogleChartsProvider.
const GoogleChartsBaseURL = "https://chart.googleapis.com/chart"

// GoogleChartsProvider downloads QR-code PNGs from the Google Charts API.
// It holds no mutable state and is safe for concurrent use.
type GoogleChartsProvider struct {
	level      ErrorCorrectionLevel
	marginRows int
	baseURL    string
	getter     Getter
	log        *slog.Logger
}

// NewGoogleCharts returns a provider configured with opts. It fails with
// ErrInvalidArgument for an undefined level or a negative margin.
func NewGoogleCharts(opts ...Option) (*GoogleChartsProvider, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	getter := o.getter
	if getter == nil {
		getter = NewHTTPGetter(o.timeout, o.policy)
	}

	return &GoogleChartsProvider{
		level:      o.level,
		marginRows: o.marginRows,
		baseURL:    o.baseURL,
		getter:     getter,
		log:        o.log,
	}, nil
}

// URL returns the chart request for text rendered size pixels square.
func (p *GoogleChartsProvider) URL(text string, size int) string {
	s := strconv.Itoa(size)

	var b strings.Builder
	b.WriteString(p.baseURL)
	b.WriteString("?cht=qr")
	b.WriteString("&chs=" + s + "x" + s)
	b.WriteString("&chld=" + p.level.Letter() + "|" + strconv.Itoa(p.marginRows))
	b.WriteString("&chl=" + escapeComponent(text))
	return b.String()
}

// GetImage fetches the PNG for text. Transport errors are returned as is.
func (p *GoogleChartsProvider) GetImage(ctx context.Context, text string, size int) ([]byte, error) {
	u := p.URL(text, size)
	p.log.Debug("fetching chart image", "size", size, "level", p.level.Letter(), "margin", p.marginRows)
	return p.getter.Get(ctx, u)
}

// GetMimeType always returns "image/png".
func (p *GoogleChartsProvider) GetMimeType() string {
	return MimeTypePNG
}

// escapeComponent percent-encodes everything except the unreserved set, so
// space becomes %20 rather than "+".
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
