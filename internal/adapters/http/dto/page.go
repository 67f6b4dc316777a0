package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/jsamuelsen/eyewear-quotes/internal/ports"
)

// ErrInvalidCursor is returned for a cursor this API did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PageQuery is the cursor and page size of a listing request.
type PageQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1"`
}

// Size returns Limit, or def when unset, never above ceiling.
func (p PageQuery) Size(def, ceiling int) int {
	if p.Limit <= 0 {
		return def
	}

	return min(p.Limit, ceiling)
}

// After decodes Cursor. An empty cursor asks for the first page.
func (p PageQuery) After() (*ports.QuoteCursor, error) {
	return DecodeCursor(p.Cursor)
}

// Page is one slice of a listing, newest first.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage builds a page. next is only encoded when hasMore is set.
func NewPage[T any](items []T, next *ports.QuoteCursor, hasMore bool) *Page[T] {
	if items == nil {
		items = []T{}
	}

	page := &Page[T]{Items: items, HasMore: hasMore}
	if hasMore {
		page.NextCursor = EncodeCursor(next)
	}

	return page
}

// cursorWire is what a cursor carries: the created_at and id of the last
// quote returned.
type cursorWire struct {
	CreatedAt string `json:"t"`
	ID        string `json:"id"`
}

// EncodeCursor renders pos as an opaque URL-safe token. A nil pos is "".
func EncodeCursor(pos *ports.QuoteCursor) string {
	if pos == nil {
		return ""
	}

	raw, err := json.Marshal(cursorWire{
		CreatedAt: pos.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID:        pos.ID,
	})
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor. "" decodes to nil.
func DecodeCursor(token string) (*ports.QuoteCursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var w cursorWire
	if err := json.Unmarshal(raw, &w); err != nil || w.ID == "" {
		return nil, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &ports.QuoteCursor{CreatedAt: createdAt, ID: w.ID}, nil
}
