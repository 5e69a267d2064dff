package domain

import "github.com/shopspring/decimal"

type FulfilmentMethodType string

const (
	FulfilmentDelivery   FulfilmentMethodType = "delivery"
	FulfilmentCollection FulfilmentMethodType = "collection"
)

// PaymentGateway tags the payment integration a checkout attempt goes through.
// Each tag implies its own confirmation sub-protocol.
type PaymentGateway string

const (
	GatewayCash       PaymentGateway = "cash"
	GatewayLoyalty    PaymentGateway = "loyalty"
	GatewayHostedPage PaymentGateway = "realex"
	GatewayCard       PaymentGateway = "checkoutcom"
	GatewayApplePay   PaymentGateway = "applepay"
)

// CashPaymentMethodName is the literal name a store uses for its cash payment method.
const CashPaymentMethodName = "cash"

type PaymentMethod struct {
	Name              string                 `json:"name"`
	FulfilmentMethods []FulfilmentMethodType `json:"fulfilmentMethods"`
	Gateways          []PaymentGateway       `json:"gateways"`
}

func (m PaymentMethod) SupportsFulfilment(f FulfilmentMethodType) bool {
	for _, v := range m.FulfilmentMethods {
		if v == f {
			return true
		}
	}
	return false
}

func (m PaymentMethod) SupportsGateway(g PaymentGateway) bool {
	for _, v := range m.Gateways {
		if v == g {
			return true
		}
	}
	return false
}

type PaymentGatewaySettings struct {
	Gateway   PaymentGateway `json:"gateway"`
	Mode      string         `json:"mode"`
	PublicKey string         `json:"publicKey,omitempty"`
}

type StoreFulfilmentMethod struct {
	Type     FulfilmentMethodType `json:"type"`
	Cost     decimal.Decimal      `json:"cost"`
	MinSpend decimal.Decimal      `json:"minSpend"`
}

type Store struct {
	ID                int                      `json:"id"`
	Name              string                   `json:"name"`
	Telephone         string                   `json:"telephone"`
	Postcode          string                   `json:"postcode"`
	Distance          float64                  `json:"distance"`
	FulfilmentMethods []StoreFulfilmentMethod  `json:"fulfilmentMethods"`
	PaymentMethods    []PaymentMethod          `json:"paymentMethods"`
	PaymentGateways   []PaymentGatewaySettings `json:"paymentGateways"`
}

// DeclaresGateway reports whether the store lists g among its configured gateways.
func (s *Store) DeclaresGateway(g PaymentGateway) bool {
	if s == nil {
		return false
	}
	for _, v := range s.PaymentGateways {
		if v.Gateway == g {
			return true
		}
	}
	return false
}

// AcceptsCashFor reports whether a payment method literally named cash
// can be used with fulfilment f.
func (s *Store) AcceptsCashFor(f FulfilmentMethodType) bool {
	if s == nil {
		return false
	}
	for _, m := range s.PaymentMethods {
		if m.Name == CashPaymentMethodName && m.SupportsFulfilment(f) {
			return true
		}
	}
	return false
}

// AcceptsGatewayFor reports whether at least one payment method is compatible
// with both gateway g and fulfilment f.
func (s *Store) AcceptsGatewayFor(g PaymentGateway, f FulfilmentMethodType) bool {
	if s == nil {
		return false
	}
	for _, m := range s.PaymentMethods {
		if m.SupportsGateway(g) && m.SupportsFulfilment(f) {
			return true
		}
	}
	return false
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FulfilmentLocation is where the customer searched from: the postcode the
// backend prices delivery against.
type FulfilmentLocation struct {
	Country  string   `json:"country"`
	Postcode string   `json:"postcode"`
	Location Location `json:"location"`
}

type StoreSearchResult struct {
	FulfilmentLocation FulfilmentLocation `json:"fulfilmentLocation"`
	Stores             []Store            `json:"stores"`
}
