package store

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestSaveAndGetRenders(t *testing.T) {
	s := newTestStore(t)

	for i, text := range []string{"first", "second", "third"} {
		r := &Render{
			Provider:  "googlecharts",
			Size:      100 + i,
			Level:     "L",
			Margin:    1,
			MimeType:  "image/png",
			Bytes:     10 * (i + 1),
			CreatedAt: int64(1000 + i),
		}
		r.SetText(text)
		require.NoError(t, s.SaveRender(r))
		assert.NotZero(t, r.ID)
	}

	got, err := s.GetRenders(10, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, digest("third"), got[0].TextSHA256)
	assert.Equal(t, digest("first"), got[2].TextSHA256)
	assert.Equal(t, 5, got[0].TextLength)
	assert.Equal(t, 102, got[0].Size)

	page, err := s.GetRenders(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, digest("second"), page[0].TextSHA256)
}

func TestSaveRenderStampsCreatedAt(t *testing.T) {
	s := newTestStore(t)

	r := &Render{Provider: "local", Size: 64, Level: "H", MimeType: "image/png"}
	r.SetText("héllo & bye")
	require.NoError(t, s.SaveRender(r))
	assert.NotZero(t, r.CreatedAt)

	got, err := s.GetRenders(5, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, digest("héllo & bye"), got[0].TextSHA256)
	assert.Equal(t, len("héllo & bye"), got[0].TextLength)
}

func TestGetRendersEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetRenders(5, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
