package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BasketFulfilmentMethod struct {
	Type     FulfilmentMethodType `json:"type"`
	Cost     decimal.Decimal      `json:"cost"`
	MinSpend decimal.Decimal      `json:"minSpend"`
}

type TimeSlot struct {
	Date      string    `json:"date"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	ExpiresAt time.Time `json:"expires,omitempty"`
}

type MenuItemRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ItemSize struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ItemOptionValue struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ItemOption struct {
	ID     int               `json:"id"`
	Name   string            `json:"name"`
	Values []ItemOptionValue `json:"values"`
}

// BasketItem is one line of a basket. LineID is assigned by the backend and
// addresses the line in update and remove calls.
type BasketItem struct {
	LineID                    int             `json:"basketLineId"`
	MenuItem                  MenuItemRef     `json:"menuItem"`
	Quantity                  int             `json:"quantity"`
	Price                     decimal.Decimal `json:"price"`
	PricePaid                 decimal.Decimal `json:"pricePaid"`
	TotalPrice                decimal.Decimal `json:"totalPrice"`
	TotalPriceBeforeDiscounts decimal.Decimal `json:"totalPriceBeforeDiscounts"`
	Size                      *ItemSize       `json:"size,omitempty"`
	Options                   []ItemOption    `json:"selectedOptions,omitempty"`
	Instructions              string          `json:"instructions,omitempty"`
}

type BasketSaving struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type BasketCoupon struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	DeductCost decimal.Decimal `json:"deductCost"`
}

type BasketFee struct {
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

type TipType string

const (
	TipDriver TipType = "driver"
	TipStaff  TipType = "staff"
)

type BasketTip struct {
	Type   TipType         `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type ContactDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// Basket is the customer's in-progress order for one store and fulfilment
// method. Token is the server-side identity of the basket.
type Basket struct {
	Token            string                 `json:"basketToken"`
	IsNewBasket      bool                   `json:"isNewBasket"`
	Items            []BasketItem           `json:"items"`
	FulfilmentMethod BasketFulfilmentMethod `json:"fulfilmentMethod"`
	SelectedSlot     *TimeSlot              `json:"selectedSlot,omitempty"`
	Savings          []BasketSaving         `json:"savings,omitempty"`
	Coupon           *BasketCoupon          `json:"coupon,omitempty"`
	Fees             []BasketFee            `json:"fees,omitempty"`
	Tips             []BasketTip            `json:"tips,omitempty"`
	Contact          *ContactDetails        `json:"contactDetails,omitempty"`
	BillingAddress   *Address               `json:"billingAddress,omitempty"`
	DeliveryAddress  *Address               `json:"deliveryAddress,omitempty"`
	SubTotal         decimal.Decimal        `json:"orderSubtotal"`
	Total            decimal.Decimal        `json:"orderTotal"`
	StoreID          int                    `json:"storeId"`
	ItemRemoved      string                 `json:"basketItemRemoved,omitempty"`
}

// Matches reports whether the basket was created for the given store and
// fulfilment method. A zero storeID is treated as unknown and not compared.
func (b *Basket) Matches(storeID int, f FulfilmentMethodType) bool {
	if b == nil {
		return false
	}
	if b.FulfilmentMethod.Type != f {
		return false
	}
	return storeID == 0 || b.StoreID == storeID
}

func (b *Basket) Line(lineID int) (BasketItem, bool) {
	if b == nil {
		return BasketItem{}, false
	}
	for _, it := range b.Items {
		if it.LineID == lineID {
			return it, true
		}
	}
	return BasketItem{}, false
}

type OptionRequest struct {
	ID       int   `json:"id"`
	ValueIDs []int `json:"values"`
}

// BasketItemRequest describes a line to add or the new state of an existing line.
type BasketItemRequest struct {
	MenuItemID     int             `json:"menuItemId"`
	Quantity       int             `json:"quantity"`
	SizeID         int             `json:"sizeId,omitempty"`
	BannerAdvertID int             `json:"bannerAdvertId,omitempty"`
	Options        []OptionRequest `json:"options,omitempty"`
	Instructions   string          `json:"instructions,omitempty"`
}
