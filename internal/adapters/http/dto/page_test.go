package dto

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

func TestPageQuery_Size(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 20},
		{-5, 20},
		{50, 50},
		{100, 100},
		{500, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PageQuery{Limit: tt.limit}.Size(20, 100), "limit %d", tt.limit)
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	art := time.FixedZone("ART", -3*60*60)
	pos := &ports.QuoteCursor{
		CreatedAt: time.Date(2026, 3, 14, 7, 30, 0, 123456789, art),
		ID:        "4b7f3c1e-8a55-4a8e-9d7c-0f3e2a1b9c8d",
	}

	token := EncodeCursor(pos)
	assert.NotContains(t, token, "=", "tokens are unpadded")

	got, err := PageQuery{Cursor: token}.After()

	require.NoError(t, err)
	assert.True(t, pos.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.Equal(t, pos.ID, got.ID)
}

func TestDecodeCursor(t *testing.T) {
	encode := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	t.Run("empty is the first page", func(t *testing.T) {
		got, err := DecodeCursor("")

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	for name, token := range map[string]string{
		"not base64":    "!!",
		"not json":      encode("{oops"),
		"missing id":    encode(`{"t":"2026-03-14T10:30:00Z"}`),
		"bad timestamp": encode(`{"t":"yesterday","id":"q-1"}`),
		"padded base64": base64.URLEncoding.EncodeToString([]byte(`{"t":"2026-03-14T10:30:00Z","id":"q"}`)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token)
			require.ErrorIs(t, err, ErrInvalidCursor)
		})
	}

	t.Run("nil position", func(t *testing.T) {
		assert.Empty(t, EncodeCursor(nil))
	})
}

func TestNewPage(t *testing.T) {
	next := &ports.QuoteCursor{CreatedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC), ID: "q-2"}

	t.Run("more pages carry the cursor", func(t *testing.T) {
		got := NewPage([]string{"q-1", "q-2"}, next, true)

		assert.True(t, got.HasMore)
		assert.Equal(t, EncodeCursor(next), got.NextCursor)
	})

	t.Run("last page has none", func(t *testing.T) {
		got := NewPage([]string{"q-1"}, next, false)

		assert.Empty(t, got.NextCursor)
	})

	t.Run("no items is an empty array", func(t *testing.T) {
		body, err := json.Marshal(NewPage[string](nil, nil, false))

		require.NoError(t, err)
		assert.JSONEq(t, `{"items":[],"hasMore":false}`, string(body))
	})
}
