package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-saas/meridian/internal/shared"
)

// RepositoryPort defines data access methods for catalog items.
type RepositoryPort interface {
	ListActive(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id int64) error
}

// maxKeyAttempts bounds key disambiguation before giving up with a
// conflict.
const maxKeyAttempts = 5

// Service handles catalog business logic.
type Service struct {
	repo  RepositoryPort
	title cases.Caser
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, title: cases.Title(language.English)}
}

// ListActiveGroupedByCategory returns the builder palette: active items
// keyed by category, already ordered by sort order within each group.
func (s *Service) ListActiveGroupedByCategory(ctx context.Context) (map[Category][]Item, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[Category][]Item)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped, nil
}

// ListActive returns the flat active item list ordered by category then
// sort order, the order used for the resolver's catalog fallback.
func (s *Service) ListActive(ctx context.Context) ([]Item, error) {
	return s.repo.ListActive(ctx)
}

// Create validates and persists a new catalog item. A missing route is
// derived from the key, and key collisions are disambiguated with a
// numeric suffix before giving up with ErrConflict.
func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	item.Key = slugify(item.Key)
	if item.Key == "" {
		return Item{}, fmt.Errorf("%w: item key is required", shared.ErrValidation)
	}
	if !validCategory(item.Category) {
		return Item{}, fmt.Errorf("%w: unknown category %q", shared.ErrValidation, item.Category)
	}
	if item.Permission != "" && !shared.KnownPermission(item.Permission) {
		return Item{}, fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, item.Permission)
	}
	if strings.TrimSpace(item.Label) == "" {
		item.Label = s.deriveLabel(item.Key)
	}
	if strings.TrimSpace(item.Route) == "" {
		item.Route = deriveRoute(item.Key)
	}

	baseKey := item.Key
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		if attempt > 0 {
			item.Key = fmt.Sprintf("%s-%d", baseKey, attempt+1)
			item.Route = deriveRoute(item.Key)
		}
		created, err := s.repo.Create(ctx, item)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return Item{}, err
		}
	}
	return Item{}, fmt.Errorf("%w: catalog key %q already taken", shared.ErrConflict, baseKey)
}

// Update rewrites an existing item.
func (s *Service) Update(ctx context.Context, item Item) error {
	if item.ID <= 0 {
		return fmt.Errorf("%w: invalid item id", shared.ErrValidation)
	}
	if !validCategory(item.Category) {
		return fmt.Errorf("%w: unknown category %q", shared.ErrValidation, item.Category)
	}
	if item.Permission != "" && !shared.KnownPermission(item.Permission) {
		return fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, item.Permission)
	}
	return s.repo.Update(ctx, item)
}

// Delete removes an item. Core items are protected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Category == CategoryCore {
		return fmt.Errorf("%w: core catalog items cannot be deleted", shared.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

// deriveLabel turns a key such as "support_tickets" into "Support Tickets".
func (s *Service) deriveLabel(key string) string {
	return s.title.String(strings.ReplaceAll(strings.ReplaceAll(key, "_", " "), "-", " "))
}

// deriveRoute turns a key into its default route identifier.
func deriveRoute(key string) string {
	return "/" + strings.ReplaceAll(key, "_", "-")
}

func slugify(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_-")
}
