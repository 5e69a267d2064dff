package api

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
)

type draftOrderRequest struct {
	BusinessID int `json:"businessId"`
	domain.DraftOrderRequest
}

type draftOrderResponse struct {
	DraftOrderID    int                `json:"draftOrderId"`
	BusinessOrderID *int               `json:"businessOrderId"`
	PaymentMethods  []domain.SavedCard `json:"paymentMethods"`
}

// outcome turns the two optional ids into a tagged result.
func (r draftOrderResponse) outcome() (domain.DraftOutcome, error) {
	if r.BusinessOrderID != nil && *r.BusinessOrderID > 0 {
		return domain.OrderConfirmed{BusinessOrderID: *r.BusinessOrderID}, nil
	}
	if r.DraftOrderID > 0 {
		return domain.AwaitingPayment{DraftOrderID: r.DraftOrderID, SavedCards: r.PaymentMethods}, nil
	}
	return nil, fmt.Errorf("create draft order: response carried neither a business order id nor a draft order id")
}

type draftRef struct {
	BusinessID   int             `json:"businessId"`
	DraftOrderID int             `json:"draftOrderId"`
	ConsumerData json.RawMessage `json:"consumerData,omitempty"`
}

type orderRef struct {
	BusinessID      int `json:"businessId"`
	BusinessOrderID int `json:"businessOrderId"`
}

type makePaymentRequest struct {
	BusinessID int `json:"businessId"`
	domain.MakePaymentRequest
}

func (c *Client) CreateDraftOrder(ctx context.Context, req domain.DraftOrderRequest) (domain.DraftOutcome, error) {
	var out draftOrderResponse
	if err := c.post(ctx, "/checkout/createDraftOrder.json", draftOrderRequest{c.BusinessID, req}, &out, callOpts{auth: true, idempotency: true}); err != nil {
		return nil, err
	}
	return out.outcome()
}

func (c *Client) GetHostedPageProducerData(ctx context.Context, draftOrderID int) (domain.HostedPageProducerData, error) {
	out := domain.HostedPageProducerData{DraftOrderID: draftOrderID}
	err := c.post(ctx, "/checkout/getRealexHPPProducerData.json", draftRef{BusinessID: c.BusinessID, DraftOrderID: draftOrderID}, &out.Payload, callOpts{auth: true})
	return out, err
}

func (c *Client) ProcessHostedPageConsumerData(ctx context.Context, draftOrderID int, consumerData json.RawMessage) (domain.PaymentResult, error) {
	return c.payment(ctx, "/checkout/processRealexHPPConsumerData.json", draftRef{BusinessID: c.BusinessID, DraftOrderID: draftOrderID, ConsumerData: consumerData})
}

func (c *Client) ConfirmPayment(ctx context.Context, draftOrderID int) (domain.PaymentResult, error) {
	return c.payment(ctx, "/checkout/confirmPayment.json", draftRef{BusinessID: c.BusinessID, DraftOrderID: draftOrderID})
}

func (c *Client) VerifyPayment(ctx context.Context, draftOrderID int) (domain.PaymentResult, error) {
	return c.payment(ctx, "/checkout/verifyPayment.json", draftRef{BusinessID: c.BusinessID, DraftOrderID: draftOrderID})
}

func (c *Client) MakePayment(ctx context.Context, req domain.MakePaymentRequest) (domain.PaymentResult, error) {
	return c.payment(ctx, "/checkout/makePayment.json", makePaymentRequest{c.BusinessID, req})
}

func (c *Client) payment(ctx context.Context, path string, body any) (domain.PaymentResult, error) {
	var out domain.PaymentResult
	err := c.post(ctx, path, body, &out, callOpts{auth: true, idempotency: true})
	return out, err
}

func (c *Client) GetPlacedOrderStatus(ctx context.Context, businessOrderID int) (domain.PlacedOrderStatus, error) {
	var out domain.PlacedOrderStatus
	err := c.post(ctx, "/order/status.json", orderRef{c.BusinessID, businessOrderID}, &out, callOpts{auth: true})
	return out, err
}

func (c *Client) GetDriverLocation(ctx context.Context, businessOrderID int) (domain.DriverLocation, error) {
	var out domain.DriverLocation
	err := c.post(ctx, "/order/driverLocation.json", orderRef{c.BusinessID, businessOrderID}, &out, callOpts{auth: true})
	return out, err
}
