package api

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/usecase"
)

type basketRequest struct {
	BusinessID         int                         `json:"businessId"`
	BasketToken        string                      `json:"basketToken,omitempty"`
	StoreID            int                         `json:"storeId,omitempty"`
	FulfilmentMethod   domain.FulfilmentMethodType `json:"fulfilmentMethod,omitempty"`
	FulfilmentLocation *domain.FulfilmentLocation  `json:"fulfilmentLocation,omitempty"`
	IsFirstOrder       *bool                       `json:"isFirstOrder,omitempty"`
	MenuItem           *domain.BasketItemRequest   `json:"menuItem,omitempty"`
	BasketLineID       int                         `json:"basketLineId,omitempty"`
	Code               string                      `json:"code,omitempty"`
	ContactDetails     *domain.ContactDetails      `json:"contactDetails,omitempty"`
	Address            *domain.Address             `json:"address,omitempty"`
	Tip                *domain.BasketTip           `json:"tip,omitempty"`
	BusinessOrderID    int                         `json:"businessOrderId,omitempty"`
	TimeSlot           *timeSlotRequest            `json:"timeSlot,omitempty"`
}

type timeSlotRequest struct {
	Date      string    `json:"date"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Postcode  string    `json:"postcode,omitempty"`
}

func (c *Client) basket(ctx context.Context, path string, req basketRequest) (*domain.Basket, error) {
	req.BusinessID = c.BusinessID
	var out domain.Basket
	if err := c.post(ctx, "/basket"+path, req, &out, callOpts{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBasket(ctx context.Context, r usecase.GetBasketRequest) (*domain.Basket, error) {
	first := r.IsFirstOrder
	return c.basket(ctx, "/getBasket.json", basketRequest{
		BasketToken:        r.BasketToken,
		StoreID:            r.StoreID,
		FulfilmentMethod:   r.FulfilmentMethod,
		FulfilmentLocation: r.FulfilmentLocation,
		IsFirstOrder:       &first,
	})
}

func (c *Client) AddItem(ctx context.Context, token string, item domain.BasketItemRequest, f domain.FulfilmentMethodType) (*domain.Basket, error) {
	return c.basket(ctx, "/addItem.json", basketRequest{BasketToken: token, MenuItem: &item, FulfilmentMethod: f})
}

func (c *Client) UpdateItem(ctx context.Context, token string, lineID int, item domain.BasketItemRequest) (*domain.Basket, error) {
	return c.basket(ctx, "/updateItem.json", basketRequest{BasketToken: token, BasketLineID: lineID, MenuItem: &item})
}

func (c *Client) RemoveItem(ctx context.Context, token string, lineID int) (*domain.Basket, error) {
	return c.basket(ctx, "/removeItem.json", basketRequest{BasketToken: token, BasketLineID: lineID})
}

func (c *Client) ApplyCoupon(ctx context.Context, token, code string) (*domain.Basket, error) {
	return c.basket(ctx, "/applyCoupon.json", basketRequest{BasketToken: token, Code: code})
}

func (c *Client) RemoveCoupon(ctx context.Context, token string) (*domain.Basket, error) {
	return c.basket(ctx, "/removeCoupon.json", basketRequest{BasketToken: token})
}

func (c *Client) ClearItems(ctx context.Context, token string) (*domain.Basket, error) {
	return c.basket(ctx, "/clearItems.json", basketRequest{BasketToken: token})
}

func (c *Client) SetContactDetails(ctx context.Context, token string, d domain.ContactDetails) (*domain.Basket, error) {
	return c.basket(ctx, "/setContactDetails.json", basketRequest{BasketToken: token, ContactDetails: &d})
}

func (c *Client) SetDeliveryAddress(ctx context.Context, token string, a domain.Address) (*domain.Basket, error) {
	return c.basket(ctx, "/setDeliveryAddress.json", basketRequest{BasketToken: token, Address: &a})
}

func (c *Client) SetBillingAddress(ctx context.Context, token string, a domain.Address) (*domain.Basket, error) {
	return c.basket(ctx, "/setBillingAddress.json", basketRequest{BasketToken: token, Address: &a})
}

func (c *Client) UpdateTip(ctx context.Context, token string, tip domain.BasketTip) (*domain.Basket, error) {
	return c.basket(ctx, "/updateTip.json", basketRequest{BasketToken: token, Tip: &tip})
}

func (c *Client) PopulateRepeatOrder(ctx context.Context, token string, businessOrderID int, f domain.FulfilmentMethodType) (*domain.Basket, error) {
	return c.basket(ctx, "/populateRepeatOrder.json", basketRequest{BasketToken: token, BusinessOrderID: businessOrderID, FulfilmentMethod: f})
}

func (c *Client) ReserveTimeSlot(ctx context.Context, token string, r usecase.TimeSlotRequest) (*domain.Basket, error) {
	return c.basket(ctx, "/reserveTimeSlot.json", basketRequest{
		BasketToken:      token,
		StoreID:          r.StoreID,
		FulfilmentMethod: r.FulfilmentMethod,
		TimeSlot:         &timeSlotRequest{Date: r.Date, StartTime: r.StartTime, EndTime: r.EndTime, Postcode: r.Postcode},
	})
}
