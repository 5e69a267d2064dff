package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/state"
)

func seededBasket() domain.Basket {
	return domain.Basket{
		Token:            "tok-1",
		StoreID:          42,
		FulfilmentMethod: domain.BasketFulfilmentMethod{Type: domain.FulfilmentDelivery},
	}
}

func newBasketFixture(t *testing.T, snap state.Snapshot, seed ...domain.Basket) (*BasketService, *fakeBasketGateway, *memCache, *state.Store) {
	t.Helper()
	gw := newFakeBasketGateway(seed...)
	cache := newMemCache()
	st := newTestState(t, snap)
	return NewBasketService(gw, cache, st, nil), gw, cache, st
}

func requireCacheMatchesState(t *testing.T, cache *memCache, st *state.Store) {
	t.Helper()
	raw, ok := cache.raw(keyBasket)
	require.True(t, ok, "basket not cached")
	live, err := json.Marshal(st.Snapshot().Basket)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(live))
}

func TestBasketAddItemThenCouponRunInOrder(t *testing.T) {
	b := seededBasket()
	svc, gw, cache, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	hold := make(chan struct{})
	gw.hold["add_item"] = hold
	gw.started = make(chan string, 4)

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: 7, Quantity: 1})
	}()
	require.Equal(t, "add_item", <-gw.started)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = svc.ApplyCoupon(ctx, "SAVE10")
	}()
	select {
	case op := <-gw.started:
		t.Fatalf("%s started while add_item was in flight", op)
	case <-time.After(50 * time.Millisecond):
	}
	close(hold)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, []string{"add_item", "apply_coupon"}, gw.Calls())

	got := st.Snapshot().Basket
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 7, got.Items[0].MenuItem.ID)
	assert.Equal(t, 1, got.Items[0].Quantity)
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "SAVE10", got.Coupon.Code)
	requireCacheMatchesState(t, cache, st)
}

func TestBasketProvisionedOnceForBackToBackMutations(t *testing.T) {
	svc, gw, cache, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:    testStore(),
		FulfilmentMethod: domain.FulfilmentCollection,
	})
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: id, Quantity: 1}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, gw.created)
	got := st.Snapshot().Basket
	require.NotNil(t, got)
	assert.Equal(t, "tok-new-1", got.Token)
	assert.Len(t, got.Items, 2)
	requireCacheMatchesState(t, cache, st)
}

func TestBasketRefreshedWhenFulfilmentChanges(t *testing.T) {
	b := seededBasket()
	svc, gw, _, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	st.SetFulfilmentMethod(domain.FulfilmentCollection)

	require.NoError(t, svc.AddItem(context.Background(), domain.BasketItemRequest{MenuItemID: 3, Quantity: 2}))

	assert.Equal(t, []string{"get_basket", "add_item"}, gw.Calls())
	got := st.Snapshot().Basket
	assert.Equal(t, domain.FulfilmentCollection, got.FulfilmentMethod.Type)
	assert.Equal(t, "tok-1", got.Token)
}

func TestBasketRefreshedWhenStoreChanges(t *testing.T) {
	b := seededBasket()
	other := testStore()
	other.ID = 77
	svc, gw, _, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      other,
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)

	require.NoError(t, svc.RemoveCoupon(context.Background()))

	assert.Equal(t, []string{"get_basket", "remove_coupon"}, gw.Calls())
	assert.Equal(t, 77, st.Snapshot().Basket.StoreID)
}

func TestBasketPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("no store and no basket", func(t *testing.T) {
		svc, gw, _, _ := newBasketFixture(t, state.Snapshot{})
		err := svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: 1, Quantity: 1})
		assert.ErrorIs(t, err, ErrStoreSelectionRequired)
		assert.Empty(t, gw.Calls())
	})

	t.Run("update without basket", func(t *testing.T) {
		svc, gw, _, _ := newBasketFixture(t, state.Snapshot{SelectedStore: testStore()})
		assert.ErrorIs(t, svc.UpdateItem(ctx, 1, domain.BasketItemRequest{Quantity: 2}), ErrBasketRequired)
		assert.ErrorIs(t, svc.RemoveItem(ctx, 1), ErrBasketRequired)
		assert.Empty(t, gw.Calls())
	})

	t.Run("delivery basket without location", func(t *testing.T) {
		svc, gw, _, st := newBasketFixture(t, state.Snapshot{
			SelectedStore:    testStore(),
			FulfilmentMethod: domain.FulfilmentDelivery,
		})
		err := svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: 1, Quantity: 1})
		assert.ErrorIs(t, err, ErrFulfilmentLocationRequired)
		assert.Empty(t, gw.Calls())
		assert.Nil(t, st.Snapshot().Basket)
	})

	t.Run("bad quantity", func(t *testing.T) {
		svc, _, _, _ := newBasketFixture(t, state.Snapshot{SelectedStore: testStore()})
		var br ErrBadRequest
		assert.ErrorAs(t, svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: 1}), &br)
	})
}

func TestBasketCouponRejectionKeepsBasket(t *testing.T) {
	b := seededBasket()
	svc, _, cache, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: 9, Quantity: 1}))
	before := st.Snapshot().Basket

	err := svc.ApplyCoupon(ctx, "EXPIRED")
	assert.ErrorIs(t, err, errCouponRejected)
	assert.Same(t, before, st.Snapshot().Basket)
	requireCacheMatchesState(t, cache, st)
}

func TestBasketUnpersistedResultNotPublished(t *testing.T) {
	b := seededBasket()
	svc, _, cache, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	cache.dropWrites = true

	err := svc.AddItem(context.Background(), domain.BasketItemRequest{MenuItemID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrUnableToPersistResult)
	assert.Empty(t, st.Snapshot().Basket.Items)

	cache.dropWrites = false
	cache.failStore = errors.New("disk full")
	err = svc.AddItem(context.Background(), domain.BasketItemRequest{MenuItemID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrUnableToPersistResult)
	assert.Empty(t, st.Snapshot().Basket.Items)
}

func TestBasketCancelledWaiterReleasesQueue(t *testing.T) {
	b := seededBasket()
	svc, gw, _, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	hold := make(chan struct{})
	gw.hold["add_item"] = hold
	gw.started = make(chan string, 8)

	done := make(chan error, 1)
	go func() {
		done <- svc.AddItem(context.Background(), domain.BasketItemRequest{MenuItemID: 1, Quantity: 1})
	}()
	<-gw.started

	ctx, cancel := context.WithCancel(context.Background())
	waiting := make(chan error, 1)
	go func() { waiting <- svc.ClearItems(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-waiting, context.Canceled)

	close(hold)
	require.NoError(t, <-done)
	require.NoError(t, svc.SetContactDetails(context.Background(), domain.ContactDetails{FirstName: "Ada"}))

	assert.Equal(t, []string{"add_item", "set_contact_details"}, gw.Calls())
	assert.Equal(t, "Ada", st.Snapshot().Basket.Contact.FirstName)
	assert.Len(t, st.Snapshot().Basket.Items, 1)
}

func TestBasketAcceptedOperationSurvivesCallerCancel(t *testing.T) {
	b := seededBasket()
	svc, gw, _, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	hold := make(chan struct{})
	gw.hold["update_tip"] = hold
	gw.started = make(chan string, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.UpdateTip(ctx, domain.BasketTip{Type: domain.TipDriver})
	}()
	<-gw.started
	cancel()
	close(hold)

	require.NoError(t, <-done)
	assert.Len(t, st.Snapshot().Basket.Tips, 1)
}

func TestRestoreBasket(t *testing.T) {
	ctx := context.Background()
	cached := seededBasket()
	cached.Token = "tok-9"

	t.Run("cached basket waits for a store", func(t *testing.T) {
		svc, gw, cache, st := newBasketFixture(t, state.Snapshot{}, cached)
		cache.seed(t, keyBasket, cached, time.Now())

		require.NoError(t, svc.RestoreBasket(ctx))
		assert.Empty(t, gw.Calls())
		require.NotNil(t, st.Snapshot().Basket)
		assert.Equal(t, "tok-9", st.Snapshot().Basket.Token)
	})

	t.Run("cached basket refreshed once store known", func(t *testing.T) {
		svc, gw, cache, st := newBasketFixture(t, state.Snapshot{
			SelectedStore:    testStore(),
			FulfilmentMethod: domain.FulfilmentDelivery,
		}, cached)
		cache.seed(t, keyBasket, cached, time.Now().Add(-time.Hour))

		require.NoError(t, svc.RestoreBasket(ctx))
		assert.Equal(t, []string{"get_basket"}, gw.Calls())
		assert.Equal(t, "tok-9", st.Snapshot().Basket.Token)
		requireCacheMatchesState(t, cache, st)
	})

	t.Run("expired cached basket dropped", func(t *testing.T) {
		svc, gw, cache, st := newBasketFixture(t, state.Snapshot{SelectedStore: testStore()}, cached)
		svc.Expiry = time.Hour
		cache.seed(t, keyBasket, cached, time.Now().Add(-2*time.Hour))

		require.NoError(t, svc.RestoreBasket(ctx))
		assert.Empty(t, gw.Calls())
		assert.Nil(t, st.Snapshot().Basket)
		_, ok := cache.raw(keyBasket)
		assert.False(t, ok)
	})

	t.Run("nothing to restore", func(t *testing.T) {
		svc, gw, _, st := newBasketFixture(t, state.Snapshot{SelectedStore: testStore()})
		require.NoError(t, svc.RestoreBasket(ctx))
		assert.Empty(t, gw.Calls())
		assert.Nil(t, st.Snapshot().Basket)
	})
}

func TestGetNewBasketDiscardsCurrent(t *testing.T) {
	b := seededBasket()
	b.Items = []domain.BasketItem{{LineID: 1, Quantity: 1}}
	svc, gw, cache, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)

	require.NoError(t, svc.GetNewBasket(context.Background()))
	assert.Equal(t, 1, gw.created)
	got := st.Snapshot().Basket
	assert.Equal(t, "tok-new-1", got.Token)
	assert.Empty(t, got.Items)
	requireCacheMatchesState(t, cache, st)
}

func TestBasketMutationsShareShape(t *testing.T) {
	b := seededBasket()
	svc, gw, cache, st := newBasketFixture(t, state.Snapshot{
		SelectedStore:      testStore(),
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: testLocation(),
		Basket:             &b,
	}, b)
	ctx := context.Background()
	start := time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)

	require.NoError(t, svc.AddItem(ctx, domain.BasketItemRequest{MenuItemID: 5, Quantity: 1}))
	line := st.Snapshot().Basket.Items[0].LineID
	require.NoError(t, svc.UpdateItem(ctx, line, domain.BasketItemRequest{MenuItemID: 5, Quantity: 3}))
	require.NoError(t, svc.SetDeliveryAddress(ctx, domain.Address{Postcode: "BN1 1AA"}))
	require.NoError(t, svc.SetBillingAddress(ctx, domain.Address{Postcode: "BN2 2BB"}))
	require.NoError(t, svc.ReserveTimeSlot(ctx, "2026-10-18", start, start.Add(15*time.Minute)))
	require.NoError(t, svc.PopulateRepeatOrder(ctx, 1234))
	require.NoError(t, svc.RemoveItem(ctx, line))
	require.NoError(t, svc.SetContactDetails(ctx, domain.ContactDetails{FirstName: "Ada", Email: "ada@example.com"}))
	require.NoError(t, svc.UpdateTip(ctx, domain.BasketTip{Type: domain.TipDriver, Amount: decimal.NewFromInt(2)}))

	got := st.Snapshot().Basket
	require.Len(t, got.Items, 1)
	assert.Equal(t, 1234, got.Items[0].MenuItem.ID)
	assert.Equal(t, "BN1 1AA", got.DeliveryAddress.Postcode)
	assert.Equal(t, "BN2 2BB", got.BillingAddress.Postcode)
	assert.Equal(t, "2026-10-18", got.SelectedSlot.Date)
	require.NotNil(t, got.Contact)
	assert.Equal(t, "ada@example.com", got.Contact.Email)
	require.Len(t, got.Tips, 1)
	assert.True(t, got.Tips[0].Amount.Equal(decimal.NewFromInt(2)))
	assert.Len(t, gw.Calls(), 9)
	assert.ErrorAs(t, svc.UpdateTip(ctx, domain.BasketTip{Type: domain.TipDriver, Amount: decimal.NewFromInt(-1)}), new(ErrBadRequest))
	requireCacheMatchesState(t, cache, st)

	require.NoError(t, svc.ClearItems(ctx))
	assert.Empty(t, st.Snapshot().Basket.Items)

	require.NoError(t, svc.ClearBasket(ctx))
	assert.Nil(t, svc.Current())
	_, ok := cache.raw(keyBasket)
	assert.False(t, ok)
}
