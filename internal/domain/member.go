package domain

import "time"

type MemberType string

const (
	MemberCustomer MemberType = "customer"
	MemberEmployee MemberType = "employee"
)

type MemberProfile struct {
	UUID            string     `json:"uuid"`
	FirstName       string     `json:"firstname"`
	LastName        string     `json:"lastname"`
	Email           string     `json:"emailAddress"`
	MobileContact   string     `json:"mobileContactNumber"`
	Type            MemberType `json:"type"`
	ReferFriendCode string     `json:"referFriendCode,omitempty"`
	SavedAddresses  []Address  `json:"savedAddresses,omitempty"`
	FetchTimestamp  time.Time  `json:"fetchTimestamp"`
	HasPlacedOrder  bool       `json:"hasPlacedOrder"`
}

// AuthTokens are issued by the backend on login and refresh.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
