package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/domain"
	"storefront/internal/state"
)

// BasketService owns every basket mutation. Public operations run one at a
// time in the order they were issued; each one provisions a basket when
// needed, calls the gateway, then writes the result to the cache and the
// shared state.
type BasketService struct {
	// Expiry bounds how old a cached basket may be and still be restored.
	// Zero keeps cached baskets indefinitely.
	Expiry time.Duration

	gateway BasketGateway
	cache   cache[domain.Basket]
	state   *state.Store
	logger  *slog.Logger
	now     func() time.Time
	queue   serialQueue
}

func NewBasketService(gateway BasketGateway, store CacheStore, st *state.Store, logger *slog.Logger) *BasketService {
	return &BasketService{
		gateway: gateway,
		cache:   newCache[domain.Basket](store, keyBasket),
		state:   st,
		logger:  orDiscard(logger),
		now:     time.Now,
	}
}

// serialise waits for the queue, then runs fn to completion even if ctx is
// cancelled after the slot was taken.
func (s *BasketService) serialise(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := s.queue.acquire(ctx); err != nil {
		return err
	}
	defer s.queue.release()
	err := fn(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Info("basket_op_failed", "op", op, "err", err)
	}
	return err
}

// Current returns the basket held in shared state, or nil.
func (s *BasketService) Current() *domain.Basket {
	return s.state.Snapshot().Basket
}

func (s *BasketService) RestoreBasket(ctx context.Context) error {
	return s.serialise(ctx, "restore", func(ctx context.Context) error {
		snap := s.state.Snapshot()
		token := snap.BasketToken()
		if token != "" {
			_, err := s.refresh(ctx, token, snap)
			return err
		}
		env, err := s.cache.fetch(ctx)
		if err != nil {
			return err
		}
		if env == nil || env.Value.Token == "" {
			return nil
		}
		if !env.Fresh(s.now(), s.Expiry) {
			s.logger.Info("basket_expired", "fetched_at", env.FetchTimestamp)
			return s.cache.clear(ctx)
		}
		if snap.SelectedStoreID() == 0 {
			// no store yet; the next mutation or store selection refreshes it
			cached := env.Value
			s.state.SetBasket(&cached)
			return nil
		}
		_, err = s.refresh(ctx, env.Value.Token, snap)
		return err
	})
}

// UpdateFulfilmentMethodAndStore re-fetches the basket for the currently
// selected store and fulfilment method.
func (s *BasketService) UpdateFulfilmentMethodAndStore(ctx context.Context) error {
	return s.serialise(ctx, "update_fulfilment", func(ctx context.Context) error {
		snap := s.state.Snapshot()
		if snap.SelectedStoreID() == 0 {
			return ErrStoreSelectionRequired
		}
		_, err := s.refresh(ctx, snap.BasketToken(), snap)
		return err
	})
}

func (s *BasketService) AddItem(ctx context.Context, item domain.BasketItemRequest) error {
	if item.Quantity <= 0 {
		return ErrBadRequest("quantity must be positive")
	}
	return s.mutate(ctx, "add_item", false, func(ctx context.Context, token string, snap state.Snapshot) (*domain.Basket, error) {
		return s.gateway.AddItem(ctx, token, item, snap.FulfilmentMethod)
	})
}

func (s *BasketService) UpdateItem(ctx context.Context, lineID int, item domain.BasketItemRequest) error {
	return s.mutate(ctx, "update_item", true, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.UpdateItem(ctx, token, lineID, item)
	})
}

func (s *BasketService) RemoveItem(ctx context.Context, lineID int) error {
	return s.mutate(ctx, "remove_item", true, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.RemoveItem(ctx, token, lineID)
	})
}

// ApplyCoupon leaves the basket untouched when the coupon is rejected.
func (s *BasketService) ApplyCoupon(ctx context.Context, code string) error {
	if code == "" {
		return ErrBadRequest("coupon code required")
	}
	return s.mutate(ctx, "apply_coupon", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.ApplyCoupon(ctx, token, code)
	})
}

func (s *BasketService) RemoveCoupon(ctx context.Context) error {
	return s.mutate(ctx, "remove_coupon", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.RemoveCoupon(ctx, token)
	})
}

func (s *BasketService) ClearItems(ctx context.Context) error {
	return s.mutate(ctx, "clear_items", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.ClearItems(ctx, token)
	})
}

func (s *BasketService) SetContactDetails(ctx context.Context, details domain.ContactDetails) error {
	return s.mutate(ctx, "set_contact_details", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.SetContactDetails(ctx, token, details)
	})
}

func (s *BasketService) SetDeliveryAddress(ctx context.Context, address domain.Address) error {
	return s.mutate(ctx, "set_delivery_address", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.SetDeliveryAddress(ctx, token, address)
	})
}

func (s *BasketService) SetBillingAddress(ctx context.Context, address domain.Address) error {
	return s.mutate(ctx, "set_billing_address", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.SetBillingAddress(ctx, token, address)
	})
}

func (s *BasketService) UpdateTip(ctx context.Context, tip domain.BasketTip) error {
	if tip.Amount.IsNegative() {
		return ErrBadRequest("tip must not be negative")
	}
	return s.mutate(ctx, "update_tip", false, func(ctx context.Context, token string, _ state.Snapshot) (*domain.Basket, error) {
		return s.gateway.UpdateTip(ctx, token, tip)
	})
}

// PopulateRepeatOrder fills the basket with the lines of a previous order.
func (s *BasketService) PopulateRepeatOrder(ctx context.Context, businessOrderID int) error {
	return s.mutate(ctx, "repeat_order", false, func(ctx context.Context, token string, snap state.Snapshot) (*domain.Basket, error) {
		return s.gateway.PopulateRepeatOrder(ctx, token, businessOrderID, snap.FulfilmentMethod)
	})
}

func (s *BasketService) ReserveTimeSlot(ctx context.Context, date string, start, end time.Time) error {
	if !end.After(start) {
		return ErrBadRequest("time slot must end after it starts")
	}
	return s.mutate(ctx, "reserve_time_slot", false, func(ctx context.Context, token string, snap state.Snapshot) (*domain.Basket, error) {
		req := TimeSlotRequest{
			StoreID:          snap.SelectedStoreID(),
			FulfilmentMethod: snap.FulfilmentMethod,
			Date:             date,
			StartTime:        start,
			EndTime:          end,
		}
		if snap.FulfilmentLocation != nil {
			req.Postcode = snap.FulfilmentLocation.Postcode
		}
		return s.gateway.ReserveTimeSlot(ctx, token, req)
	})
}

// GetNewBasket discards the current basket and fetches an empty one for the
// selected store.
func (s *BasketService) GetNewBasket(ctx context.Context) error {
	return s.serialise(ctx, "new_basket", func(ctx context.Context) error {
		snap := s.state.Snapshot()
		if snap.SelectedStoreID() == 0 {
			return ErrStoreSelectionRequired
		}
		if err := s.discard(ctx); err != nil {
			return err
		}
		snap.Basket = nil
		_, err := s.refresh(ctx, "", snap)
		return err
	})
}

// ClearBasket removes the basket from the cache and from shared state.
func (s *BasketService) ClearBasket(ctx context.Context) error {
	return s.serialise(ctx, "clear_basket", s.discard)
}

func (s *BasketService) discard(ctx context.Context) error {
	if err := s.cache.clear(ctx); err != nil {
		return err
	}
	s.state.ClearBasket()
	return nil
}

type basketCall func(ctx context.Context, token string, snap state.Snapshot) (*domain.Basket, error)

func (s *BasketService) mutate(ctx context.Context, op string, needLine bool, call basketCall) error {
	return s.serialise(ctx, op, func(ctx context.Context) error {
		snap := s.state.Snapshot()
		if needLine && snap.BasketToken() == "" {
			return ErrBasketRequired
		}
		token, err := s.ensure(ctx, snap)
		if err != nil {
			return err
		}
		b, err := call(ctx, token, s.state.Snapshot())
		if err != nil {
			return err
		}
		_, err = s.persist(ctx, b)
		return err
	})
}

// ensure returns a token for a basket that matches the selected store and
// fulfilment method, creating or refreshing the basket first when needed.
func (s *BasketService) ensure(ctx context.Context, snap state.Snapshot) (string, error) {
	token := snap.BasketToken()
	if token == "" && snap.SelectedStoreID() == 0 {
		return "", ErrStoreSelectionRequired
	}
	if token != "" && snap.Basket.Matches(snap.SelectedStoreID(), snap.FulfilmentMethod) {
		return token, nil
	}
	if token != "" {
		s.logger.Info("basket_mismatch_refresh",
			"basket_store", snap.Basket.StoreID, "store", snap.SelectedStoreID(),
			"basket_fulfilment", snap.Basket.FulfilmentMethod.Type, "fulfilment", snap.FulfilmentMethod)
	}
	b, err := s.refresh(ctx, token, snap)
	if err != nil {
		return "", err
	}
	if b.Token == "" {
		return "", ErrBasketRequired
	}
	return b.Token, nil
}

// refresh gets or creates the basket on the backend for the state in snap.
func (s *BasketService) refresh(ctx context.Context, token string, snap state.Snapshot) (*domain.Basket, error) {
	storeID := snap.SelectedStoreID()
	if storeID == 0 && snap.Basket != nil {
		storeID = snap.Basket.StoreID
	}
	if token == "" && snap.FulfilmentMethod == domain.FulfilmentDelivery && snap.FulfilmentLocation == nil {
		return nil, ErrFulfilmentLocationRequired
	}
	b, err := s.gateway.GetBasket(ctx, GetBasketRequest{
		BasketToken:        token,
		StoreID:            storeID,
		FulfilmentMethod:   snap.FulfilmentMethod,
		FulfilmentLocation: snap.FulfilmentLocation,
		IsFirstOrder:       snap.Member == nil || !snap.Member.HasPlacedOrder,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("basket_refreshed", "had_token", token != "", "store", storeID)
	return s.persist(ctx, b)
}

// persist clears the cached basket, stores b, reads it back and publishes
// the read-back value. State is left alone when the cache cannot return
// what was written.
func (s *BasketService) persist(ctx context.Context, b *domain.Basket) (*domain.Basket, error) {
	if b == nil {
		return nil, ErrUnableToPersistResult
	}
	if err := s.cache.clear(ctx); err != nil {
		return nil, errors.Join(ErrUnableToPersistResult, err)
	}
	if err := s.cache.put(ctx, *b, s.now()); err != nil {
		return nil, errors.Join(ErrUnableToPersistResult, err)
	}
	env, err := s.cache.fetch(ctx)
	if err != nil {
		return nil, errors.Join(ErrUnableToPersistResult, err)
	}
	if env == nil {
		return nil, fmt.Errorf("%w: basket missing after write", ErrUnableToPersistResult)
	}
	stored := env.Value
	s.state.SetBasket(&stored)
	return &stored, nil
}
