package domain

type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressDelivery AddressType = "delivery"
)

type Address struct {
	ID           int         `json:"id,omitempty"`
	IsDefault    bool        `json:"isDefault,omitempty"`
	AddressName  string      `json:"addressName,omitempty"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	AddressLine1 string      `json:"addressLine1"`
	AddressLine2 string      `json:"addressLine2,omitempty"`
	Town         string      `json:"town"`
	Postcode     string      `json:"postcode"`
	County       string      `json:"county,omitempty"`
	CountryCode  string      `json:"countryCode"`
	Type         AddressType `json:"type"`
	Location     *Location   `json:"location,omitempty"`
	Email        string      `json:"email,omitempty"`
	Telephone    string      `json:"telephone,omitempty"`
}

// FoundAddress is a postcode lookup hit.
type FoundAddress struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	Town         string `json:"town"`
	Postcode     string `json:"postcode"`
	County       string `json:"county"`
	CountryCode  string `json:"countryCode"`
}
