package usecase

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/domain"
)

type GetBasketRequest struct {
	BasketToken        string
	StoreID            int
	FulfilmentMethod   domain.FulfilmentMethodType
	FulfilmentLocation *domain.FulfilmentLocation
	IsFirstOrder       bool
}

type TimeSlotRequest struct {
	StoreID          int
	FulfilmentMethod domain.FulfilmentMethodType
	Date             string
	StartTime        time.Time
	EndTime          time.Time
	Postcode         string
}

// BasketGateway is the remote side of every basket mutation. Each call
// returns the basket as the backend holds it after the change.
type BasketGateway interface {
	GetBasket(ctx context.Context, req GetBasketRequest) (*domain.Basket, error)
	AddItem(ctx context.Context, basketToken string, item domain.BasketItemRequest, fulfilment domain.FulfilmentMethodType) (*domain.Basket, error)
	UpdateItem(ctx context.Context, basketToken string, lineID int, item domain.BasketItemRequest) (*domain.Basket, error)
	RemoveItem(ctx context.Context, basketToken string, lineID int) (*domain.Basket, error)
	ApplyCoupon(ctx context.Context, basketToken, code string) (*domain.Basket, error)
	RemoveCoupon(ctx context.Context, basketToken string) (*domain.Basket, error)
	ClearItems(ctx context.Context, basketToken string) (*domain.Basket, error)
	SetContactDetails(ctx context.Context, basketToken string, details domain.ContactDetails) (*domain.Basket, error)
	SetDeliveryAddress(ctx context.Context, basketToken string, address domain.Address) (*domain.Basket, error)
	SetBillingAddress(ctx context.Context, basketToken string, address domain.Address) (*domain.Basket, error)
	UpdateTip(ctx context.Context, basketToken string, tip domain.BasketTip) (*domain.Basket, error)
	PopulateRepeatOrder(ctx context.Context, basketToken string, businessOrderID int, fulfilment domain.FulfilmentMethodType) (*domain.Basket, error)
	ReserveTimeSlot(ctx context.Context, basketToken string, req TimeSlotRequest) (*domain.Basket, error)
}

type PaymentMaker interface {
	MakePayment(ctx context.Context, req domain.MakePaymentRequest) (domain.PaymentResult, error)
}

type CheckoutGateway interface {
	PaymentMaker
	CreateDraftOrder(ctx context.Context, req domain.DraftOrderRequest) (domain.DraftOutcome, error)
	GetHostedPageProducerData(ctx context.Context, draftOrderID int) (domain.HostedPageProducerData, error)
	ProcessHostedPageConsumerData(ctx context.Context, draftOrderID int, consumerData json.RawMessage) (domain.PaymentResult, error)
	ConfirmPayment(ctx context.Context, draftOrderID int) (domain.PaymentResult, error)
	VerifyPayment(ctx context.Context, draftOrderID int) (domain.PaymentResult, error)
	GetPlacedOrderStatus(ctx context.Context, businessOrderID int) (domain.PlacedOrderStatus, error)
	GetDriverLocation(ctx context.Context, businessOrderID int) (domain.DriverLocation, error)
}

type StoreGateway interface {
	SearchStores(ctx context.Context, postcode string) (domain.StoreSearchResult, error)
	GetStoreDetails(ctx context.Context, storeID int, postcode string) (domain.Store, error)
}

type MenuRequest struct {
	StoreID          int
	FulfilmentMethod domain.FulfilmentMethodType
	ParentCategoryID int
}

type MenuGateway interface {
	GetMenu(ctx context.Context, req MenuRequest) (domain.MenuFetch, error)
	GlobalSearch(ctx context.Context, storeID int, fulfilment domain.FulfilmentMethodType, term string) (domain.MenuSearchResult, error)
}

type MemberGateway interface {
	Login(ctx context.Context, email, password string) (domain.AuthTokens, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context, storeID int) (domain.MemberProfile, error)
}

type AddressGateway interface {
	FindAddresses(ctx context.Context, postcode, countryCode string) ([]domain.FoundAddress, error)
}

// TokenSession holds the credentials the gateway attaches to requests.
type TokenSession interface {
	SetTokens(domain.AuthTokens)
	Clear()
	SignedIn() bool
}

type OrderCompleted struct {
	BusinessOrderID  int                         `json:"businessOrderId"`
	StoreID          int                         `json:"storeId"`
	FulfilmentMethod domain.FulfilmentMethodType `json:"fulfilmentMethod"`
	MemberUUID       string                      `json:"memberUuid,omitempty"`
	CompletedAt      time.Time                   `json:"completedAt"`
}

// OrderNotifier receives completed orders for the referral programme.
type OrderNotifier interface {
	OrderCompleted(ctx context.Context, ev OrderCompleted) error
}
