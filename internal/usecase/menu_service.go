package usecase

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/state"
)

// MenuService serves menu pages cache-first; they change rarely within a
// session.
type MenuService struct {
	Gateway MenuGateway
	Cache   CacheStore
	State   *state.Store
	Fetcher *Fetcher
	Expiry  time.Duration

	search latest
}

// GetCategories returns the categories and items under parentCategoryID for
// the selected store. Zero is the menu root.
func (s *MenuService) GetCategories(ctx context.Context, parentCategoryID int) (domain.MenuFetch, error) {
	snap := s.State.Snapshot()
	if snap.SelectedStoreID() == 0 {
		return domain.MenuFetch{}, ErrStoreSelectionRequired
	}
	req := MenuRequest{StoreID: snap.SelectedStoreID(), FulfilmentMethod: snap.FulfilmentMethod, ParentCategoryID: parentCategoryID}
	c := newCache[domain.MenuFetch](s.Cache, keyMenu(req.StoreID, req.FulfilmentMethod, parentCategoryID))
	return cacheFirst(ctx, s.Fetcher, c, s.Expiry, func(ctx context.Context) (domain.MenuFetch, error) {
		m, err := s.Gateway.GetMenu(ctx, req)
		if err == nil {
			m.FetchTimestamp = time.Now()
		}
		return m, err
	})
}

// GlobalSearch searches the whole menu. A newer search supersedes one still
// in flight.
func (s *MenuService) GlobalSearch(ctx context.Context, term string) (domain.MenuSearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.MenuSearchResult{}, ErrBadRequest("search term required")
	}
	snap := s.State.Snapshot()
	if snap.SelectedStoreID() == 0 {
		return domain.MenuSearchResult{}, ErrStoreSelectionRequired
	}
	ctx, current, done := s.search.begin(ctx)
	defer done()
	res, err := s.Gateway.GlobalSearch(ctx, snap.SelectedStoreID(), snap.FulfilmentMethod, term)
	if !current() {
		return domain.MenuSearchResult{}, ErrSuperseded
	}
	return res, err
}
