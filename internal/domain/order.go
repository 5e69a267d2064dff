package domain

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PlacedOrderStatus struct {
	BusinessOrderID int         `json:"businessOrderId"`
	Status          OrderStatus `json:"status"`
	StatusText      string      `json:"statusText"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// DraftOrderFulfilmentDetails carries the requested slot and, for table
// service stores, the place the order is for.
type DraftOrderFulfilmentDetails struct {
	Time  *TimeSlot `json:"time,omitempty"`
	Place string    `json:"place,omitempty"`
}

type DraftOrderRequest struct {
	BasketToken       string                      `json:"basketToken"`
	StoreID           int                         `json:"storeId"`
	FulfilmentDetails DraftOrderFulfilmentDetails `json:"fulfilmentDetails"`
	Instructions      string                      `json:"instructions,omitempty"`
	PaymentGateway    PaymentGateway              `json:"paymentGateway"`
	Contact           ContactDetails              `json:"contact"`
}

type SavedCard struct {
	ID          string `json:"id"`
	Scheme      string `json:"scheme"`
	Last4       string `json:"last4"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	IsDefault   bool   `json:"isDefault"`
}

// DraftOutcome is the result of creating a draft order: either the order is
// already confirmed, or it waits for a gateway-specific payment step.
type DraftOutcome interface {
	draftOutcome()
}

type OrderConfirmed struct {
	BusinessOrderID int
}

type AwaitingPayment struct {
	DraftOrderID int
	SavedCards   []SavedCard
}

func (OrderConfirmed) draftOutcome()  {}
func (AwaitingPayment) draftOutcome() {}

// HostedPageProducerData is the opaque payload the hosted payment page is
// initialised with.
type HostedPageProducerData struct {
	DraftOrderID int             `json:"draftOrderId"`
	Payload      json.RawMessage `json:"producerData"`
}

type PaymentType string

const (
	PaymentByToken   PaymentType = "token"
	PaymentBySaved   PaymentType = "id"
	PaymentByNewCard PaymentType = "card"
)

type MakePaymentRequest struct {
	DraftOrderID int         `json:"draftOrderId"`
	Type         PaymentType `json:"type"`
	Method       string      `json:"paymentMethod"`
	Token        string      `json:"token,omitempty"`
	CardID       string      `json:"cardId,omitempty"`
	CVV          string      `json:"cvv,omitempty"`
}

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "success"
	PaymentPending   PaymentStatus = "pending"
	PaymentDeclined  PaymentStatus = "declined"
)

// PaymentResult is returned by confirm, verify and make-payment calls.
// BusinessOrderID is zero until the order is placed; a pending result may
// carry a 3-D Secure redirect.
type PaymentResult struct {
	Status          PaymentStatus `json:"status"`
	BusinessOrderID int           `json:"businessOrderId,omitempty"`
	RedirectURL     string        `json:"redirectUrl,omitempty"`
	Message         string        `json:"message,omitempty"`
}
