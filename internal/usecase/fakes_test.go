package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/state"
)

type memEntry struct {
	payload []byte
	at      time.Time
}

type memCache struct {
	mu         sync.Mutex
	m          map[string]memEntry
	dropWrites bool
	failStore  error
}

func newMemCache() *memCache { return &memCache{m: map[string]memEntry{}} }

func (c *memCache) Fetch(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return append([]byte(nil), e.payload...), e.at, true, nil
}

func (c *memCache) Store(_ context.Context, key string, payload []byte, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failStore != nil {
		return c.failStore
	}
	if c.dropWrites {
		return nil
	}
	c.m[key] = memEntry{payload: append([]byte(nil), payload...), at: at}
	return nil
}

func (c *memCache) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *memCache) raw(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	return e.payload, ok
}

func (c *memCache) seed(t *testing.T, key string, v any, at time.Time) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	c.m[key] = memEntry{payload: raw, at: at}
	c.mu.Unlock()
}

type fakeBasketGateway struct {
	mu       sync.Mutex
	calls    []string
	baskets  map[string]*domain.Basket
	created  int
	nextLine int

	// hold, when set, blocks calls to the named op until it is closed.
	hold    map[string]chan struct{}
	started chan string
}

func newFakeBasketGateway(seed ...domain.Basket) *fakeBasketGateway {
	g := &fakeBasketGateway{baskets: map[string]*domain.Basket{}, hold: map[string]chan struct{}{}}
	for i := range seed {
		b := seed[i]
		g.baskets[b.Token] = &b
	}
	return g
}

func (g *fakeBasketGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeBasketGateway) enter(op string) {
	g.mu.Lock()
	g.calls = append(g.calls, op)
	h := g.hold[op]
	g.mu.Unlock()
	if g.started != nil {
		g.started <- op
	}
	if h != nil {
		<-h
	}
}

func copyBasket(b *domain.Basket) *domain.Basket {
	cp := *b
	cp.Items = append([]domain.BasketItem(nil), b.Items...)
	return &cp
}

func (g *fakeBasketGateway) apply(op, token string, fn func(b *domain.Basket) error) (*domain.Basket, error) {
	g.enter(op)
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.baskets[token]
	if !ok {
		return nil, ErrNotFound("basket")
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	return copyBasket(b), nil
}

func (g *fakeBasketGateway) GetBasket(_ context.Context, req GetBasketRequest) (*domain.Basket, error) {
	g.enter("get_basket")
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.baskets[req.BasketToken]
	if !ok {
		g.created++
		b = &domain.Basket{Token: fmt.Sprintf("tok-new-%d", g.created), IsNewBasket: true}
		g.baskets[b.Token] = b
	}
	if req.StoreID != 0 {
		b.StoreID = req.StoreID
	}
	b.FulfilmentMethod.Type = req.FulfilmentMethod
	return copyBasket(b), nil
}

func (g *fakeBasketGateway) AddItem(_ context.Context, token string, item domain.BasketItemRequest, _ domain.FulfilmentMethodType) (*domain.Basket, error) {
	return g.apply("add_item", token, func(b *domain.Basket) error {
		g.nextLine++
		b.Items = append(b.Items, domain.BasketItem{
			LineID:   g.nextLine,
			MenuItem: domain.MenuItemRef{ID: item.MenuItemID},
			Quantity: item.Quantity,
		})
		return nil
	})
}

func (g *fakeBasketGateway) UpdateItem(_ context.Context, token string, lineID int, item domain.BasketItemRequest) (*domain.Basket, error) {
	return g.apply("update_item", token, func(b *domain.Basket) error {
		for i := range b.Items {
			if b.Items[i].LineID == lineID {
				b.Items[i].Quantity = item.Quantity
				return nil
			}
		}
		return ErrNotFound("basket line")
	})
}

func (g *fakeBasketGateway) RemoveItem(_ context.Context, token string, lineID int) (*domain.Basket, error) {
	return g.apply("remove_item", token, func(b *domain.Basket) error {
		for i := range b.Items {
			if b.Items[i].LineID == lineID {
				b.Items = append(b.Items[:i], b.Items[i+1:]...)
				return nil
			}
		}
		return ErrNotFound("basket line")
	})
}

var errCouponRejected = errors.New("coupon rejected")

func (g *fakeBasketGateway) ApplyCoupon(_ context.Context, token, code string) (*domain.Basket, error) {
	return g.apply("apply_coupon", token, func(b *domain.Basket) error {
		if code == "EXPIRED" {
			return errCouponRejected
		}
		b.Coupon = &domain.BasketCoupon{Code: code, DeductCost: decimal.NewFromInt(1)}
		return nil
	})
}

func (g *fakeBasketGateway) RemoveCoupon(_ context.Context, token string) (*domain.Basket, error) {
	return g.apply("remove_coupon", token, func(b *domain.Basket) error {
		b.Coupon = nil
		return nil
	})
}

func (g *fakeBasketGateway) ClearItems(_ context.Context, token string) (*domain.Basket, error) {
	return g.apply("clear_items", token, func(b *domain.Basket) error {
		b.Items = nil
		return nil
	})
}

func (g *fakeBasketGateway) SetContactDetails(_ context.Context, token string, d domain.ContactDetails) (*domain.Basket, error) {
	return g.apply("set_contact_details", token, func(b *domain.Basket) error {
		b.Contact = &d
		return nil
	})
}

func (g *fakeBasketGateway) SetDeliveryAddress(_ context.Context, token string, a domain.Address) (*domain.Basket, error) {
	return g.apply("set_delivery_address", token, func(b *domain.Basket) error {
		b.DeliveryAddress = &a
		return nil
	})
}

func (g *fakeBasketGateway) SetBillingAddress(_ context.Context, token string, a domain.Address) (*domain.Basket, error) {
	return g.apply("set_billing_address", token, func(b *domain.Basket) error {
		b.BillingAddress = &a
		return nil
	})
}

func (g *fakeBasketGateway) UpdateTip(_ context.Context, token string, tip domain.BasketTip) (*domain.Basket, error) {
	return g.apply("update_tip", token, func(b *domain.Basket) error {
		b.Tips = []domain.BasketTip{tip}
		return nil
	})
}

func (g *fakeBasketGateway) PopulateRepeatOrder(_ context.Context, token string, businessOrderID int, _ domain.FulfilmentMethodType) (*domain.Basket, error) {
	return g.apply("repeat_order", token, func(b *domain.Basket) error {
		g.nextLine++
		b.Items = append(b.Items, domain.BasketItem{LineID: g.nextLine, MenuItem: domain.MenuItemRef{ID: businessOrderID}, Quantity: 1})
		return nil
	})
}

func (g *fakeBasketGateway) ReserveTimeSlot(_ context.Context, token string, req TimeSlotRequest) (*domain.Basket, error) {
	return g.apply("reserve_time_slot", token, func(b *domain.Basket) error {
		b.SelectedSlot = &domain.TimeSlot{Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime}
		return nil
	})
}

func testStore() *domain.Store {
	return &domain.Store{
		ID:        42,
		Name:      "Harbour Street",
		Telephone: "01632 960123",
		PaymentMethods: []domain.PaymentMethod{
			{
				Name:              "card",
				FulfilmentMethods: []domain.FulfilmentMethodType{domain.FulfilmentDelivery, domain.FulfilmentCollection},
				Gateways:          []domain.PaymentGateway{domain.GatewayCard, domain.GatewayApplePay},
			},
			{
				Name:              "cash",
				FulfilmentMethods: []domain.FulfilmentMethodType{domain.FulfilmentCollection},
				Gateways:          []domain.PaymentGateway{domain.GatewayCash},
			},
			{
				Name:              "hpp",
				FulfilmentMethods: []domain.FulfilmentMethodType{domain.FulfilmentCollection},
				Gateways:          []domain.PaymentGateway{domain.GatewayHostedPage},
			},
		},
		PaymentGateways: []domain.PaymentGatewaySettings{
			{Gateway: domain.GatewayCard},
			{Gateway: domain.GatewayApplePay},
			{Gateway: domain.GatewayHostedPage},
		},
	}
}

func testLocation() *domain.FulfilmentLocation {
	return &domain.FulfilmentLocation{Country: "GB", Postcode: "BN1 1AA"}
}

func newTestState(t *testing.T, snap state.Snapshot) *state.Store {
	t.Helper()
	st := state.NewStore(snap)
	t.Cleanup(st.Close)
	return st
}
