package domain

import "time"

// DeliveryStatus is the courier-side state of a delivery.
type DeliveryStatus int

const (
	DeliveryUnknown             DeliveryStatus = 0
	DeliveryPending             DeliveryStatus = 1
	DeliveryDriverAssigned      DeliveryStatus = 2
	DeliveryDriverAtStore       DeliveryStatus = 3
	DeliveryPickedUp            DeliveryStatus = 4
	DeliveryEnRoute             DeliveryStatus = 5
	DeliveryFinished            DeliveryStatus = 6
	DeliveryProblem             DeliveryStatus = 7
	DeliveryThirdPartyUntracked DeliveryStatus = 8
)

// Terminal reports whether the delivery is over and can no longer be followed on a map.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case DeliveryFinished, DeliveryProblem, DeliveryThirdPartyUntracked:
		return true
	}
	return false
}

type OrderDelivery struct {
	Status           DeliveryStatus `json:"status"`
	Location         Location       `json:"location"`
	EstimatedArrival *time.Time     `json:"estimatedArrival,omitempty"`
}

type OrderDriver struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

type DriverLocation struct {
	BusinessOrderID int            `json:"orderId"`
	Delivery        *OrderDelivery `json:"delivery,omitempty"`
	Driver          *OrderDriver   `json:"driver,omitempty"`
	StoreLocation   *Location      `json:"storeLocation,omitempty"`
}

func (d DriverLocation) Status() DeliveryStatus {
	if d.Delivery == nil {
		return DeliveryUnknown
	}
	return d.Delivery.Status
}

// LastDeliveryOrder is the minimal record kept after a delivery order is
// placed so the app can offer live tracking later.
type LastDeliveryOrder struct {
	BusinessOrderID    int    `json:"businessOrderId"`
	StoreName          string `json:"storeName"`
	StoreContactNumber string `json:"storeContactNumber"`
	DeliveryPostcode   string `json:"deliveryPostcode"`
}

// DriverLocationMap is what a live map needs to follow an en route delivery.
type DriverLocationMap struct {
	Order          LastDeliveryOrder `json:"order"`
	DriverLocation DriverLocation    `json:"driverLocation"`
}
