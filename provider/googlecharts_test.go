package provider

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGetter struct {
	mu   sync.Mutex
	urls []string
	body []byte
	err  error
}

func (g *recordingGetter) Get(_ context.Context, u string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.urls = append(g.urls, u)
	return g.body, g.err
}

func TestNewGoogleChartsAcceptsDefinedLevels(t *testing.T) {
	for _, l := range []ErrorCorrectionLevel{Low, Medium, Quartile, High} {
		p, err := NewGoogleCharts(WithErrorCorrectionLevel(l))
		require.NoError(t, err, l.String())
		assert.Equal(t, l, p.level)
	}
}

func TestNewGoogleChartsRejectsUndefinedLevel(t *testing.T) {
	for _, l := range []ErrorCorrectionLevel{-1, 4, 42} {
		_, err := NewGoogleCharts(WithErrorCorrectionLevel(l))
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestNewGoogleChartsMarginRows(t *testing.T) {
	for _, n := range []int{0, 1, 4, 100} {
		_, err := NewGoogleCharts(WithMarginRows(n))
		require.NoError(t, err)
	}
	for _, n := range []int{-1, -50} {
		_, err := NewGoogleCharts(WithMarginRows(n))
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestURLHelloWorld(t *testing.T) {
	p, err := NewGoogleCharts()
	require.NoError(t, err)

	u := p.URL("Hello World", 200)
	assert.True(t, strings.HasPrefix(u, GoogleChartsBaseURL+"?"))
	assert.Contains(t, u, "cht=qr&chs=200x200&chld=L|1&chl=Hello%20World")
}

func TestURLUsesConfiguredLevelAndMargin(t *testing.T) {
	p, err := NewGoogleCharts(WithErrorCorrectionLevel(Quartile), WithMarginRows(4))
	require.NoError(t, err)
	assert.Contains(t, p.URL("x", 64), "chs=64x64&chld=Q|4&chl=x")
}

func TestURLEscapesReservedAndUnicode(t *testing.T) {
	p, err := NewGoogleCharts()
	require.NoError(t, err)

	inputs := []string{
		"a&b=c?d/e",
		"otpauth://totp/Acme:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Acme",
		"héllo wörld",
		"日本語テキスト",
		"emoji 🚀 + plus #hash %percent",
		"",
	}
	for _, in := range inputs {
		u := p.URL(in, 100)
		idx := strings.Index(u, "&chl=")
		require.NotEqual(t, -1, idx)
		raw := u[idx+len("&chl="):]

		assert.NotContains(t, raw, "&")
		assert.NotContains(t, raw, "=")
		assert.NotContains(t, raw, "?")
		assert.NotContains(t, raw, "/")
		assert.NotContains(t, raw, " ")
		assert.NotContains(t, raw, "+")

		decoded, err := url.PathUnescape(raw)
		require.NoError(t, err)
		assert.Equal(t, in, decoded)
	}
}

func TestGetImageDefaults(t *testing.T) {
	g := &recordingGetter{body: []byte{0x89, 'P', 'N', 'G', 1, 2, 3}}
	p, err := NewGoogleCharts(WithGetter(g))
	require.NoError(t, err)

	got, err := p.GetImage(context.Background(), "test", 150)
	require.NoError(t, err)
	assert.Equal(t, g.body, got)

	require.Len(t, g.urls, 1)
	assert.True(t, strings.HasSuffix(g.urls[0], "chs=150x150&chld=L|1&chl=test"), g.urls[0])
}

func TestGetImagePropagatesTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	p, err := NewGoogleCharts(WithGetter(&recordingGetter{err: boom}))
	require.NoError(t, err)

	_, err = p.GetImage(context.Background(), "test", 150)
	assert.Equal(t, boom, err)
}

func TestGetMimeType(t *testing.T) {
	for _, l := range []ErrorCorrectionLevel{Low, Medium, Quartile, High} {
		p, err := NewGoogleCharts(WithErrorCorrectionLevel(l), WithMarginRows(3))
		require.NoError(t, err)
		assert.Equal(t, "image/png", p.GetMimeType())
	}
}

func TestNewByName(t *testing.T) {
	p, err := New(NameGoogleCharts)
	require.NoError(t, err)
	assert.IsType(t, &GoogleChartsProvider{}, p)

	p, err = New(NameLocal)
	require.NoError(t, err)
	assert.IsType(t, &LocalProvider{}, p)

	_, err = New("imagecharts")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
