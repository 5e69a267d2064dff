package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/state"
)

// StoreService searches for stores near a postcode and selects one.
type StoreService struct {
	gateway StoreGateway
	store   CacheStore
	state   *state.Store
	fetcher *Fetcher
	expiry  time.Duration
	logger  *slog.Logger
	search  latest
}

func NewStoreService(gateway StoreGateway, store CacheStore, st *state.Store, fetcher *Fetcher, expiry time.Duration, logger *slog.Logger) *StoreService {
	return &StoreService{gateway: gateway, store: store, state: st, fetcher: fetcher, expiry: expiry, logger: orDiscard(logger)}
}

// SearchStores supersedes any search still in flight. A superseded search
// returns ErrSuperseded and does not touch shared state.
func (s *StoreService) SearchStores(ctx context.Context, postcode string) (domain.StoreSearchResult, error) {
	postcode = strings.TrimSpace(postcode)
	if postcode == "" {
		return domain.StoreSearchResult{}, ErrBadRequest("postcode required")
	}
	ctx, current, done := s.search.begin(ctx)
	defer done()

	c := newCache[domain.StoreSearchResult](s.store, keyStoreSearch(postcode))
	res, err := webFirst(ctx, s.fetcher, c, s.expiry, func(ctx context.Context) (domain.StoreSearchResult, error) {
		return s.gateway.SearchStores(ctx, postcode)
	})
	if !current() {
		return domain.StoreSearchResult{}, ErrSuperseded
	}
	if err != nil {
		return domain.StoreSearchResult{}, err
	}
	s.state.SetSearchResult(&res)
	s.logger.Info("stores_searched", "postcode", postcode, "count", len(res.Stores))
	return res, nil
}

// SelectStore loads full store details and makes the store and fulfilment
// method current. The basket is not touched; callers follow up with
// BasketService.UpdateFulfilmentMethodAndStore.
func (s *StoreService) SelectStore(ctx context.Context, storeID int, f domain.FulfilmentMethodType) (domain.Store, error) {
	if storeID <= 0 {
		return domain.Store{}, ErrBadRequest("store id required")
	}
	if f != domain.FulfilmentDelivery && f != domain.FulfilmentCollection {
		return domain.Store{}, ErrBadRequest("unknown fulfilment method")
	}
	snap := s.state.Snapshot()
	if f == domain.FulfilmentDelivery && snap.FulfilmentLocation == nil {
		return domain.Store{}, ErrFulfilmentLocationRequired
	}
	var postcode string
	if snap.FulfilmentLocation != nil {
		postcode = snap.FulfilmentLocation.Postcode
	}
	c := newCache[domain.Store](s.store, keyStoreDetails(storeID))
	st, err := webFirst(ctx, s.fetcher, c, s.expiry, func(ctx context.Context) (domain.Store, error) {
		return s.gateway.GetStoreDetails(ctx, storeID, postcode)
	})
	if err != nil {
		return domain.Store{}, err
	}
	s.state.Publish(func(cur *state.Snapshot) {
		cur.SelectedStore = &st
		cur.FulfilmentMethod = f
	})
	return st, nil
}

// SetFulfilmentMethod switches between delivery and collection for the
// selected store.
func (s *StoreService) SetFulfilmentMethod(f domain.FulfilmentMethodType) error {
	if f != domain.FulfilmentDelivery && f != domain.FulfilmentCollection {
		return ErrBadRequest("unknown fulfilment method")
	}
	s.state.SetFulfilmentMethod(f)
	return nil
}
