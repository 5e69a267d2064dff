package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
)

// CacheStore is the byte-level local cache. Keys are independent of each
// other; no ordering is promised across keys.
type CacheStore interface {
	// Fetch returns ok=false when nothing is stored under key.
	Fetch(ctx context.Context, key string) (payload []byte, fetchedAt time.Time, ok bool, err error)
	Store(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error
	Clear(ctx context.Context, key string) error
}

// Envelope wraps a cached value with the time it was fetched from the web.
type Envelope[T any] struct {
	Value          T
	FetchTimestamp time.Time
}

// Fresh reports whether the envelope is inside the expiry window at now.
// A zero window never expires.
func (e Envelope[T]) Fresh(now time.Time, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	return now.Sub(e.FetchTimestamp) <= window
}

type cache[T any] struct {
	store CacheStore
	key   string
}

func newCache[T any](store CacheStore, key string) cache[T] {
	return cache[T]{store: store, key: key}
}

func (c cache[T]) fetch(ctx context.Context) (*Envelope[T], error) {
	raw, at, ok, err := c.store.Fetch(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", c.key, err)
	}
	return &Envelope[T]{Value: v, FetchTimestamp: at}, nil
}

func (c cache[T]) put(ctx context.Context, v T, at time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Store(ctx, c.key, raw, at)
}

func (c cache[T]) clear(ctx context.Context) error {
	return c.store.Clear(ctx, c.key)
}

const (
	keyBasket            = "basket"
	keyMemberProfile     = "member_profile"
	keyLastDeliveryOrder = "last_delivery_order"
)

func keyStoreSearch(postcode string) string {
	return "store_search:" + normalisePostcode(postcode)
}

func keyStoreDetails(storeID int) string {
	return "store:" + strconv.Itoa(storeID)
}

func keyMenu(storeID int, f domain.FulfilmentMethodType, parentCategoryID int) string {
	return fmt.Sprintf("menu:%d:%s:%d", storeID, f, parentCategoryID)
}

func keyAddresses(postcode, countryCode string) string {
	return "addresses:" + strings.ToLower(countryCode) + ":" + normalisePostcode(postcode)
}

func normalisePostcode(p string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p), " ", ""))
}
