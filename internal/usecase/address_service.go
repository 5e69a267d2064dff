package usecase

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain"
)

type AddressService struct {
	Gateway AddressGateway
	Cache   CacheStore
	Fetcher *Fetcher
	Expiry  time.Duration
}

// FindAddresses looks up the addresses at a postcode. Gateway errors are
// returned as they are; ErrNoAddressesFound only reports an empty result.
func (s *AddressService) FindAddresses(ctx context.Context, postcode, countryCode string) ([]domain.FoundAddress, error) {
	postcode = strings.TrimSpace(postcode)
	if postcode == "" {
		return nil, ErrBadRequest("postcode required")
	}
	if countryCode == "" {
		countryCode = "GB"
	}
	c := newCache[[]domain.FoundAddress](s.Cache, keyAddresses(postcode, countryCode))
	out, err := webFirst(ctx, s.Fetcher, c, s.Expiry, func(ctx context.Context) ([]domain.FoundAddress, error) {
		return s.Gateway.FindAddresses(ctx, postcode, countryCode)
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoAddressesFound
	}
	return out, nil
}
