package api

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/usecase"
)

type storeSearchRequest struct {
	BusinessID int    `json:"businessId"`
	Postcode   string `json:"postcode"`
}

type storeDetailsRequest struct {
	BusinessID int    `json:"businessId"`
	StoreID    int    `json:"storeId"`
	Postcode   string `json:"postcode,omitempty"`
}

type menuRequest struct {
	BusinessID       int                         `json:"businessId"`
	StoreID          int                         `json:"storeId"`
	FulfilmentMethod domain.FulfilmentMethodType `json:"fulfilmentMethod"`
	ParentCategoryID int                         `json:"parentCategoryId,omitempty"`
	Term             string                      `json:"term,omitempty"`
}

type addressRequest struct {
	BusinessID  int    `json:"businessId"`
	Postcode    string `json:"postcode"`
	CountryCode string `json:"countryCode"`
}

func (c *Client) SearchStores(ctx context.Context, postcode string) (domain.StoreSearchResult, error) {
	var out domain.StoreSearchResult
	err := c.post(ctx, "/stores/search.json", storeSearchRequest{c.BusinessID, postcode}, &out, callOpts{})
	return out, err
}

func (c *Client) GetStoreDetails(ctx context.Context, storeID int, postcode string) (domain.Store, error) {
	var out domain.Store
	err := c.post(ctx, "/stores/select.json", storeDetailsRequest{c.BusinessID, storeID, postcode}, &out, callOpts{})
	return out, err
}

func (c *Client) GetMenu(ctx context.Context, r usecase.MenuRequest) (domain.MenuFetch, error) {
	var out domain.MenuFetch
	err := c.post(ctx, "/categories/list.json", menuRequest{
		BusinessID:       c.BusinessID,
		StoreID:          r.StoreID,
		FulfilmentMethod: r.FulfilmentMethod,
		ParentCategoryID: r.ParentCategoryID,
	}, &out, callOpts{})
	return out, err
}

func (c *Client) GlobalSearch(ctx context.Context, storeID int, f domain.FulfilmentMethodType, term string) (domain.MenuSearchResult, error) {
	var out domain.MenuSearchResult
	err := c.post(ctx, "/menu/globalSearch.json", menuRequest{BusinessID: c.BusinessID, StoreID: storeID, FulfilmentMethod: f, Term: term}, &out, callOpts{})
	if out.Term == "" {
		out.Term = term
	}
	return out, err
}

func (c *Client) FindAddresses(ctx context.Context, postcode, countryCode string) ([]domain.FoundAddress, error) {
	var out struct {
		Addresses []domain.FoundAddress `json:"addresses"`
	}
	err := c.post(ctx, "/address/find.json", addressRequest{c.BusinessID, postcode, countryCode}, &out, callOpts{})
	return out.Addresses, err
}
