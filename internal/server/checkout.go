package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/usecase"
)

type checkoutBody struct {
	Gateway           domain.PaymentGateway              `json:"paymentGateway"`
	FulfilmentDetails domain.DraftOrderFulfilmentDetails `json:"fulfilmentDetails"`
	Instructions      string                             `json:"instructions"`
	Contact           domain.ContactDetails              `json:"contact"`
}

func (b checkoutBody) request() usecase.CheckoutRequest {
	return usecase.CheckoutRequest{
		Gateway:           b.Gateway,
		FulfilmentDetails: b.FulfilmentDetails,
		Instructions:      b.Instructions,
		Contact:           b.Contact,
	}
}

func asPending(err error) (*usecase.PaymentPendingError, bool) {
	var pending *usecase.PaymentPendingError
	ok := errors.As(err, &pending)
	return pending, ok
}

// placed answers a payment step. An order confirmed with cleanup errors is
// still reported as placed.
func (s *Server) placed(c *gin.Context, businessOrderID int, err error) {
	if businessOrderID == 0 {
		s.fail(c, err)
		return
	}
	if err != nil {
		s.logger.Warn("order_cleanup_failed", "business_order_id", businessOrderID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"businessOrderId": businessOrderID})
}

func (s *Server) handleCreateDraft(c *gin.Context) {
	var body checkoutBody
	if !s.bind(c, &body) {
		return
	}
	out, err := s.svc.Checkout.CreateDraftOrder(c.Request.Context(), body.request())
	switch o := out.(type) {
	case domain.OrderConfirmed:
		s.placed(c, o.BusinessOrderID, err)
	case domain.AwaitingPayment:
		c.JSON(http.StatusOK, gin.H{
			"draftOrderId": o.DraftOrderID,
			"savedCards":   o.SavedCards,
		})
	default:
		s.fail(c, err)
	}
}

func (s *Server) handleHostedPageProducer(c *gin.Context) {
	data, err := s.svc.Checkout.GetHostedPageProducerData(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) handleHostedPageConsumer(c *gin.Context) {
	var body struct {
		ConsumerData json.RawMessage `json:"consumerData"`
	}
	if !s.bind(c, &body) {
		return
	}
	if len(body.ConsumerData) == 0 {
		s.err(c, http.StatusBadRequest, "BadRequest", "consumerData required")
		return
	}
	id, err := s.svc.Checkout.ProcessHostedPageConsumerData(c.Request.Context(), body.ConsumerData)
	s.placed(c, id, err)
}

func (s *Server) handleConfirmPayment(c *gin.Context) {
	id, err := s.svc.Checkout.ConfirmPayment(c.Request.Context())
	s.placed(c, id, err)
}

func (s *Server) handleVerifyPayment(c *gin.Context) {
	id, err := s.svc.Checkout.VerifyPayment(c.Request.Context())
	s.placed(c, id, err)
}

func (s *Server) handleMakePayment(c *gin.Context) {
	var body struct {
		Type   domain.PaymentType `json:"type"`
		Method string             `json:"method"`
		Token  string             `json:"token"`
		CardID string             `json:"cardId"`
		CVV    string             `json:"cvv"`
	}
	if !s.bind(c, &body) {
		return
	}
	id, err := s.svc.Checkout.MakePayment(c.Request.Context(), usecase.PaymentDetails{
		Type:   body.Type,
		Method: body.Method,
		Token:  body.Token,
		CardID: body.CardID,
		CVV:    body.CVV,
	})
	s.placed(c, id, err)
}

// walletToken completes a wallet payment with a token the client obtained
// from its payment sheet before calling in.
type walletToken string

func (t walletToken) Pay(ctx context.Context, intent *usecase.PaymentIntent) (int, error) {
	res, err := intent.Complete(ctx, string(t))
	if err != nil {
		return 0, err
	}
	if res.BusinessOrderID != 0 {
		return res.BusinessOrderID, nil
	}
	switch res.Status {
	case domain.PaymentDeclined:
		return 0, usecase.ErrPaymentDeclined
	case domain.PaymentPending:
		return 0, &usecase.PaymentPendingError{RedirectURL: res.RedirectURL}
	}
	return 0, nil
}

func (s *Server) handleWallet(c *gin.Context) {
	var body struct {
		checkoutBody
		Token string `json:"walletToken"`
	}
	if !s.bind(c, &body) {
		return
	}
	id, err := s.svc.Checkout.PayWithWallet(c.Request.Context(), body.request(), walletToken(body.Token))
	s.placed(c, id, err)
}

func (s *Server) handleLastOrder(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"businessOrderId": s.svc.Checkout.LastBusinessOrderIDInCurrentSession(),
		"draftOrderId":    s.svc.Checkout.DraftOrderID(),
	})
}

func (s *Server) handleOrderStatus(c *gin.Context) {
	id, ok := s.intParam(c, "orderId")
	if !ok {
		return
	}
	st, err := s.svc.Checkout.GetPlacedOrderStatus(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleDriverLocation(c *gin.Context) {
	id, ok := s.intParam(c, "orderId")
	if !ok {
		return
	}
	loc, err := s.svc.Checkout.GetDriverLocation(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// handleLastDeliveryTracking answers 204 when there is nothing to follow on
// a map.
func (s *Server) handleLastDeliveryTracking(c *gin.Context) {
	m, err := s.svc.Checkout.GetLastDeliveryOrderDriverLocation(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if m == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, m)
}
