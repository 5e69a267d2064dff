package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/state"
)

type CheckoutRequest struct {
	Gateway           domain.PaymentGateway
	FulfilmentDetails domain.DraftOrderFulfilmentDetails
	Instructions      string
	Contact           domain.ContactDetails
}

// PaymentDetails is what the customer supplies for a generic payment.
type PaymentDetails struct {
	Type   domain.PaymentType
	Method string
	Token  string
	CardID string
	CVV    string
}

// PaymentIntent carries everything a wallet payment needs except the token,
// which only the platform payment sheet can produce.
type PaymentIntent struct {
	DraftOrderID int
	Type         domain.PaymentType
	Method       string

	payer PaymentMaker
}

func (p *PaymentIntent) Complete(ctx context.Context, token string) (domain.PaymentResult, error) {
	if token == "" {
		return domain.PaymentResult{}, ErrBadRequest("wallet token required")
	}
	return p.payer.MakePayment(ctx, domain.MakePaymentRequest{
		DraftOrderID: p.DraftOrderID,
		Type:         p.Type,
		Method:       p.Method,
		Token:        token,
	})
}

// WalletHandler presents the platform payment sheet, completes intent with
// the token it obtains and returns the resulting business order id, or zero
// when none came back.
type WalletHandler interface {
	Pay(ctx context.Context, intent *PaymentIntent) (int, error)
}

type CheckoutOptions struct {
	MentionMeEnabled        bool
	LastDeliveryOrderExpiry time.Duration
}

// CheckoutService turns the current basket into a placed order. The draft
// order id of the attempt in progress stays private to the service until
// the order is confirmed.
type CheckoutService struct {
	gateway  CheckoutGateway
	baskets  *BasketService
	tracking cache[domain.LastDeliveryOrder]
	state    *state.Store
	notifier OrderNotifier
	opts     CheckoutOptions
	logger   *slog.Logger
	now      func() time.Time

	mu                  sync.Mutex
	draftOrderID        int
	lastBusinessOrderID int
}

func NewCheckoutService(gateway CheckoutGateway, baskets *BasketService, store CacheStore, st *state.Store, notifier OrderNotifier, opts CheckoutOptions, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:  gateway,
		baskets:  baskets,
		tracking: newCache[domain.LastDeliveryOrder](store, keyLastDeliveryOrder),
		state:    st,
		notifier: notifier,
		opts:     opts,
		logger:   orDiscard(logger),
		now:      time.Now,
	}
}

// ValidateGateway checks that store offers gateway for fulfilment method f.
func ValidateGateway(store *domain.Store, gateway domain.PaymentGateway, f domain.FulfilmentMethodType) error {
	if gateway == domain.GatewayCash {
		if !store.AcceptsCashFor(f) {
			return ErrGatewayNotAvailableToStore
		}
		return nil
	}
	if !store.DeclaresGateway(gateway) {
		return ErrGatewayNotAvailableToStore
	}
	if !store.AcceptsGatewayFor(gateway, f) {
		return ErrGatewayNotAvailableForFulfilmentMethod
	}
	return nil
}

// CreateDraftOrder starts a checkout attempt. An OrderConfirmed outcome has
// already been through confirmation; an AwaitingPayment outcome leaves the
// draft order id retained for the payment step.
func (s *CheckoutService) CreateDraftOrder(ctx context.Context, req CheckoutRequest) (domain.DraftOutcome, error) {
	snap := s.state.Snapshot()
	if snap.BasketToken() == "" {
		return nil, ErrBasketRequired
	}
	if snap.SelectedStore == nil {
		return nil, ErrStoreSelectionRequired
	}
	if err := ValidateGateway(snap.SelectedStore, req.Gateway, snap.FulfilmentMethod); err != nil {
		return nil, err
	}
	// The draft is priced from the basket, so it must belong to the
	// selected store and fulfilment method before it is submitted.
	if !snap.Basket.Matches(snap.SelectedStoreID(), snap.FulfilmentMethod) {
		if err := s.baskets.UpdateFulfilmentMethodAndStore(ctx); err != nil {
			return nil, err
		}
		snap = s.state.Snapshot()
		if !snap.Basket.Matches(snap.SelectedStoreID(), snap.FulfilmentMethod) {
			return nil, ErrBasketRequired
		}
	}
	out, err := s.gateway.CreateDraftOrder(ctx, domain.DraftOrderRequest{
		BasketToken:       snap.BasketToken(),
		StoreID:           snap.SelectedStoreID(),
		FulfilmentDetails: req.FulfilmentDetails,
		Instructions:      req.Instructions,
		PaymentGateway:    req.Gateway,
		Contact:           req.Contact,
	})
	if err != nil {
		return nil, err
	}
	switch o := out.(type) {
	case domain.OrderConfirmed:
		if o.BusinessOrderID == 0 {
			return nil, ErrBusinessOrderIDNotReturned
		}
		return out, s.confirm(ctx, o.BusinessOrderID)
	case domain.AwaitingPayment:
		s.mu.Lock()
		s.draftOrderID = o.DraftOrderID
		s.mu.Unlock()
		s.logger.Info("draft_order_created", "draft_order_id", o.DraftOrderID, "gateway", req.Gateway)
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected draft outcome %T", out)
	}
}

func (s *CheckoutService) draft() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draftOrderID == 0 {
		return 0, ErrDraftOrderRequired
	}
	return s.draftOrderID, nil
}

func (s *CheckoutService) GetHostedPageProducerData(ctx context.Context) (domain.HostedPageProducerData, error) {
	id, err := s.draft()
	if err != nil {
		return domain.HostedPageProducerData{}, err
	}
	return s.gateway.GetHostedPageProducerData(ctx, id)
}

// ProcessHostedPageConsumerData submits the hosted page's response.
func (s *CheckoutService) ProcessHostedPageConsumerData(ctx context.Context, consumerData json.RawMessage) (int, error) {
	id, err := s.draft()
	if err != nil {
		return 0, err
	}
	res, err := s.gateway.ProcessHostedPageConsumerData(ctx, id, consumerData)
	if err != nil {
		return 0, err
	}
	return s.settle(ctx, res)
}

func (s *CheckoutService) ConfirmPayment(ctx context.Context) (int, error) {
	id, err := s.draft()
	if err != nil {
		return 0, err
	}
	res, err := s.gateway.ConfirmPayment(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.settle(ctx, res)
}

// VerifyPayment polls the payment after an out-of-band redirect.
func (s *CheckoutService) VerifyPayment(ctx context.Context) (int, error) {
	id, err := s.draft()
	if err != nil {
		return 0, err
	}
	res, err := s.gateway.VerifyPayment(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.settle(ctx, res)
}

func (s *CheckoutService) MakePayment(ctx context.Context, p PaymentDetails) (int, error) {
	id, err := s.draft()
	if err != nil {
		return 0, err
	}
	res, err := s.gateway.MakePayment(ctx, domain.MakePaymentRequest{
		DraftOrderID: id,
		Type:         p.Type,
		Method:       p.Method,
		Token:        p.Token,
		CardID:       p.CardID,
		CVV:          p.CVV,
	})
	if err != nil {
		return 0, err
	}
	return s.settle(ctx, res)
}

// PayWithWallet creates the draft order, hands a payment intent to the
// wallet handler and confirms the order it reports.
func (s *CheckoutService) PayWithWallet(ctx context.Context, req CheckoutRequest, handler WalletHandler) (int, error) {
	if req.Gateway == "" {
		req.Gateway = domain.GatewayApplePay
	}
	out, err := s.CreateDraftOrder(ctx, req)
	if err != nil {
		return 0, err
	}
	awaiting, ok := out.(domain.AwaitingPayment)
	if !ok {
		return out.(domain.OrderConfirmed).BusinessOrderID, nil
	}
	intent := &PaymentIntent{
		DraftOrderID: awaiting.DraftOrderID,
		Type:         domain.PaymentByToken,
		Method:       string(req.Gateway),
		payer:        s.gateway,
	}
	id, err := handler.Pay(ctx, intent)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		s.logger.Error("wallet_order_missing", "draft_order_id", awaiting.DraftOrderID)
		return 0, ErrWalletBusinessOrderIDMissing
	}
	return id, s.confirm(ctx, id)
}

func (s *CheckoutService) settle(ctx context.Context, res domain.PaymentResult) (int, error) {
	if res.BusinessOrderID != 0 {
		return res.BusinessOrderID, s.confirm(ctx, res.BusinessOrderID)
	}
	switch res.Status {
	case domain.PaymentDeclined:
		if res.Message != "" {
			return 0, fmt.Errorf("%w: %s", ErrPaymentDeclined, res.Message)
		}
		return 0, ErrPaymentDeclined
	case domain.PaymentPending:
		return 0, &PaymentPendingError{RedirectURL: res.RedirectURL}
	}
	return 0, ErrBusinessOrderIDNotReturned
}

// confirm moves the attempt to its terminal state. The order is recorded
// before any cleanup so a cleanup failure never hides the placed order.
func (s *CheckoutService) confirm(ctx context.Context, businessOrderID int) error {
	s.mu.Lock()
	s.draftOrderID = 0
	s.lastBusinessOrderID = businessOrderID
	s.mu.Unlock()

	snap := s.state.Snapshot()
	s.logger.Info("order_confirmed", "business_order_id", businessOrderID, "fulfilment", snap.FulfilmentMethod)

	var errs []error
	if snap.FulfilmentMethod == domain.FulfilmentDelivery {
		if err := s.tracking.put(ctx, lastDeliveryOrder(businessOrderID, snap), s.now()); err != nil {
			errs = append(errs, fmt.Errorf("store last delivery order: %w", err))
		}
	}
	if err := s.baskets.ClearBasket(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear basket: %w", err))
	}
	if s.opts.MentionMeEnabled {
		s.state.ClearMentionMeOffer()
		s.notifyCompleted(ctx, businessOrderID, snap)
	}
	return errors.Join(errs...)
}

func (s *CheckoutService) notifyCompleted(ctx context.Context, businessOrderID int, snap state.Snapshot) {
	if s.notifier == nil {
		return
	}
	ev := OrderCompleted{
		BusinessOrderID:  businessOrderID,
		StoreID:          snap.SelectedStoreID(),
		FulfilmentMethod: snap.FulfilmentMethod,
		CompletedAt:      s.now().UTC(),
	}
	if snap.Member != nil {
		ev.MemberUUID = snap.Member.UUID
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.notifier.OrderCompleted(ctx, ev); err != nil {
			s.logger.Warn("order_completed_notify_failed", "business_order_id", businessOrderID, "err", err)
		}
	}()
}

func lastDeliveryOrder(businessOrderID int, snap state.Snapshot) domain.LastDeliveryOrder {
	rec := domain.LastDeliveryOrder{BusinessOrderID: businessOrderID}
	if snap.SelectedStore != nil {
		rec.StoreName = snap.SelectedStore.Name
		rec.StoreContactNumber = snap.SelectedStore.Telephone
	}
	switch {
	case snap.Basket != nil && snap.Basket.DeliveryAddress != nil:
		rec.DeliveryPostcode = snap.Basket.DeliveryAddress.Postcode
	case snap.FulfilmentLocation != nil:
		rec.DeliveryPostcode = snap.FulfilmentLocation.Postcode
	}
	return rec
}

// LastBusinessOrderIDInCurrentSession returns zero until an order has been
// confirmed in this process.
func (s *CheckoutService) LastBusinessOrderIDInCurrentSession() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBusinessOrderID
}

// DraftOrderID returns the retained draft order id, or zero.
func (s *CheckoutService) DraftOrderID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftOrderID
}

func (s *CheckoutService) GetPlacedOrderStatus(ctx context.Context, businessOrderID int) (domain.PlacedOrderStatus, error) {
	if businessOrderID <= 0 {
		return domain.PlacedOrderStatus{}, ErrBadRequest("business order id required")
	}
	return s.gateway.GetPlacedOrderStatus(ctx, businessOrderID)
}

// GetDriverLocation returns the live delivery status. Once the delivery is
// over, the matching last-delivery record is dropped.
func (s *CheckoutService) GetDriverLocation(ctx context.Context, businessOrderID int) (domain.DriverLocation, error) {
	loc, err := s.gateway.GetDriverLocation(ctx, businessOrderID)
	if err != nil {
		return domain.DriverLocation{}, err
	}
	if loc.Status().Terminal() {
		s.forgetDelivery(ctx, businessOrderID)
	}
	return loc, nil
}

func (s *CheckoutService) forgetDelivery(ctx context.Context, businessOrderID int) {
	env, err := s.tracking.fetch(ctx)
	if err != nil {
		s.logger.Warn("cache_read_failed", "key", keyLastDeliveryOrder, "err", err)
		return
	}
	if env == nil || env.Value.BusinessOrderID != businessOrderID {
		return
	}
	if err := s.tracking.clear(ctx); err != nil {
		s.logger.Warn("cache_clear_failed", "key", keyLastDeliveryOrder, "err", err)
		return
	}
	s.logger.Info("last_delivery_order_cleared", "business_order_id", businessOrderID)
}

// GetLastDeliveryOrderDriverLocation returns a map payload for the last
// delivery order only while its driver is en route. Any other status, or
// no recorded order, yields nil.
func (s *CheckoutService) GetLastDeliveryOrderDriverLocation(ctx context.Context) (*domain.DriverLocationMap, error) {
	env, err := s.tracking.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if env == nil || !env.Fresh(s.now(), s.opts.LastDeliveryOrderExpiry) {
		return nil, nil
	}
	loc, err := s.GetDriverLocation(ctx, env.Value.BusinessOrderID)
	if err != nil {
		return nil, err
	}
	if loc.Status() != domain.DeliveryEnRoute {
		return nil, nil
	}
	return &domain.DriverLocationMap{Order: env.Value, DriverLocation: loc}, nil
}
