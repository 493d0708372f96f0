package catalog

import "time"

// Category groups catalog items for the builder palette.
type Category string

const (
	CategoryCore    Category = "core"
	CategoryAdmin   Category = "admin"
	CategoryContent Category = "content"
	CategoryCustom  Category = "custom"
)

// Item is a reusable, administrator-curated navigation descriptor.
// Permission is optional; an empty value means the entry is visible to
// anyone who can see the menu.
type Item struct {
	ID         int64    `json:"id"`
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Icon       string   `json:"icon"`
	Route      string   `json:"route"`
	Permission string   `json:"permission,omitempty"`
	Category   Category `json:"category"`
	SortOrder  int      `json:"sort_order"`
	IsActive   bool     `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func validCategory(c Category) bool {
	switch c {
	case CategoryCore, CategoryAdmin, CategoryContent, CategoryCustom:
		return true
	}
	return false
}
