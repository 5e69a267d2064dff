package usecase

import (
	"errors"
	"net/http"
)

// Precondition errors. They are returned before any network call.
var (
	ErrStoreSelectionRequired     = errors.New("store selection required")
	ErrFulfilmentLocationRequired = errors.New("fulfilment location required")
	ErrBasketRequired             = errors.New("unable to proceed without basket")
	ErrMemberRequired             = errors.New("member not signed in")
	ErrDraftOrderRequired         = errors.New("draft order missing")
)

// Payment gateway selection errors.
var (
	ErrGatewayNotAvailableToStore             = errors.New("payment gateway not available to store")
	ErrGatewayNotAvailableForFulfilmentMethod = errors.New("payment gateway not available for fulfilment method")
)

// Payment outcome errors. A declined payment is distinct from a payment that
// went through but did not yield a placed order.
var (
	ErrPaymentDeclined              = errors.New("payment declined")
	ErrBusinessOrderIDNotReturned   = errors.New("business order id not returned")
	ErrWalletBusinessOrderIDMissing = errors.New("wallet payment completed without a business order id")
)

var (
	// ErrUnauthorized matches gateway responses that rejected the session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnableToPersistResult means a gateway call succeeded but its result
	// could not be read back from the local cache.
	ErrUnableToPersistResult = errors.New("unable to persist result")
	ErrSuperseded            = errors.New("superseded by a newer request")
	ErrNoAddressesFound      = errors.New("no addresses found")
)

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) + " not found" }

type ErrBadRequest string

func (e ErrBadRequest) Error() string { return string(e) }

// PaymentPendingError is returned when the gateway needs the customer to
// finish an out-of-band step (3-D Secure) before the payment can be verified.
type PaymentPendingError struct {
	RedirectURL string
}

func (e *PaymentPendingError) Error() string { return "payment pending customer verification" }

type described struct {
	err     error
	code    string
	message string
	status  int
}

var descriptions = []described{
	{ErrStoreSelectionRequired, "StoreSelectionRequired", "Please choose a store before adding to your basket.", http.StatusConflict},
	{ErrFulfilmentLocationRequired, "FulfilmentLocationRequired", "Please enter your postcode so we can check delivery to you.", http.StatusConflict},
	{ErrBasketRequired, "BasketRequired", "We couldn't find your basket. Please try again.", http.StatusConflict},
	{ErrMemberRequired, "MemberRequired", "Please sign in to continue.", http.StatusUnauthorized},
	{ErrDraftOrderRequired, "DraftOrderRequired", "Your checkout session has expired. Please start checkout again.", http.StatusConflict},
	{ErrGatewayNotAvailableToStore, "PaymentGatewayNotAvailableToStore", "This payment option isn't offered by this store.", http.StatusUnprocessableEntity},
	{ErrGatewayNotAvailableForFulfilmentMethod, "PaymentGatewayNotAvailableForFulfilmentMethod", "This payment option isn't available for your chosen delivery or collection method.", http.StatusUnprocessableEntity},
	{ErrPaymentDeclined, "PaymentDeclined", "Your payment was declined. Please try another payment method.", http.StatusPaymentRequired},
	{ErrBusinessOrderIDNotReturned, "OrderNotFinalised", "Something went wrong finalising your order. Please contact the store before trying again.", http.StatusBadGateway},
	{ErrWalletBusinessOrderIDMissing, "WalletOrderNotFinalised", "Your wallet payment went through but we couldn't finalise your order. Please contact the store.", http.StatusBadGateway},
	{ErrUnauthorized, "Unauthorized", "Your session has expired. Please sign in again.", http.StatusUnauthorized},
	{ErrUnableToPersistResult, "UnableToPersistResult", "We couldn't save your changes on this device. Please try again.", http.StatusInternalServerError},
	{ErrSuperseded, "Superseded", "This request was replaced by a newer one.", http.StatusConflict},
	{ErrNoAddressesFound, "NoAddressesFound", "We couldn't find any addresses for that postcode.", http.StatusNotFound},
}

// Describe maps an error to a machine code, a user-facing message and the
// HTTP status the local surface answers with.
func Describe(err error) (code, message string, status int) {
	var pending *PaymentPendingError
	if errors.As(err, &pending) {
		return "PaymentPending", "Please complete the verification step with your bank.", http.StatusAccepted
	}
	for _, d := range descriptions {
		if errors.Is(err, d.err) {
			return d.code, d.message, d.status
		}
	}
	var nf ErrNotFound
	if errors.As(err, &nf) {
		return "NotFound", nf.Error(), http.StatusNotFound
	}
	var br ErrBadRequest
	if errors.As(err, &br) {
		return "BadRequest", br.Error(), http.StatusBadRequest
	}
	return "GatewayError", "Something went wrong. Please try again.", http.StatusBadGateway
}
