package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetter(t *testing.T) {
	assert.Equal(t, "L", Low.Letter())
	assert.Equal(t, "M", Medium.Letter())
	assert.Equal(t, "Q", Quartile.Letter())
	assert.Equal(t, "H", High.Letter())
	assert.Equal(t, "", ErrorCorrectionLevel(9).Letter())
	assert.False(t, ErrorCorrectionLevel(9).Valid())
}

func TestParseErrorCorrectionLevel(t *testing.T) {
	cases := map[string]ErrorCorrectionLevel{
		"L": Low, "low": Low,
		"m": Medium, "Medium": Medium,
		"Q": Quartile, "quartile": Quartile,
		" h ": High, "HIGH": High,
	}
	for in, want := range cases {
		got, err := ParseErrorCorrectionLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseErrorCorrectionLevel("X")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
