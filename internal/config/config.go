package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env              string
	Port             int
	APIBaseURL       string
	APIKey           string
	BusinessID       int
	DatabaseURL      string
	AMQPURL          string
	LogJSON          bool
	MentionMeEnabled bool
	HTTPTimeout      time.Duration
	MinimumWebDelay  time.Duration

	BasketExpiry            time.Duration
	StoreSearchExpiry       time.Duration
	MenuExpiry              time.Duration
	MemberProfileExpiry     time.Duration
	AddressExpiry           time.Duration
	LastDeliveryOrderExpiry time.Duration
}

func Default() Config {
	return Config{
		Env:                     "dev",
		Port:                    5000,
		APIBaseURL:              "https://api.example-ordering.com",
		LogJSON:                 true,
		HTTPTimeout:             15 * time.Second,
		MinimumWebDelay:         500 * time.Millisecond,
		BasketExpiry:            24 * time.Hour,
		StoreSearchExpiry:       time.Hour,
		MenuExpiry:              time.Hour,
		MemberProfileExpiry:     24 * time.Hour,
		AddressExpiry:           7 * 24 * time.Hour,
		LastDeliveryOrderExpiry: 3 * time.Hour,
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

// WebDelay is the minimum web call duration for this environment. Only
// production builds smooth out fast responses.
func (c Config) WebDelay() time.Duration {
	if c.Env != "prod" {
		return 0
	}
	return c.MinimumWebDelay
}

func fromEnv(c Config) Config {
	if v := os.Getenv("STOREFRONT_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("STOREFRONT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("STOREFRONT_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("STOREFRONT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("STOREFRONT_BUSINESS_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.BusinessID = id
		}
	}
	if v := os.Getenv("STOREFRONT_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("STOREFRONT_AMQP_URL"); v != "" {
		c.AMQPURL = v
	}
	c.LogJSON = boolEnv("STOREFRONT_LOG_JSON", c.LogJSON)
	c.MentionMeEnabled = boolEnv("STOREFRONT_MENTION_ME", c.MentionMeEnabled)
	c.HTTPTimeout = durationEnv("STOREFRONT_HTTP_TIMEOUT", c.HTTPTimeout)
	c.MinimumWebDelay = durationEnv("STOREFRONT_MIN_WEB_DELAY", c.MinimumWebDelay)
	c.BasketExpiry = durationEnv("STOREFRONT_BASKET_EXPIRY", c.BasketExpiry)
	c.StoreSearchExpiry = durationEnv("STOREFRONT_STORE_SEARCH_EXPIRY", c.StoreSearchExpiry)
	c.MenuExpiry = durationEnv("STOREFRONT_MENU_EXPIRY", c.MenuExpiry)
	c.MemberProfileExpiry = durationEnv("STOREFRONT_MEMBER_PROFILE_EXPIRY", c.MemberProfileExpiry)
	c.AddressExpiry = durationEnv("STOREFRONT_ADDRESS_EXPIRY", c.AddressExpiry)
	c.LastDeliveryOrderExpiry = durationEnv("STOREFRONT_LAST_DELIVERY_ORDER_EXPIRY", c.LastDeliveryOrderExpiry)
	return c
}

func boolEnv(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE":
		return true
	case "0", "false", "FALSE":
		return false
	}
	return def
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
