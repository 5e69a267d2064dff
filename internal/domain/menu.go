package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuCategory struct {
	ID          int    `json:"id"`
	ParentID    int    `json:"parentId"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

type MenuItemPrice struct {
	Price    decimal.Decimal  `json:"price"`
	WasPrice *decimal.Decimal `json:"wasPrice,omitempty"`
	UnitName string           `json:"unitName,omitempty"`
}

type MenuItem struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       MenuItemPrice `json:"price"`
	Sizes       []ItemSize    `json:"sizes,omitempty"`
	Options     []ItemOption  `json:"menuItemOptions,omitempty"`
	Image       string        `json:"image,omitempty"`
	QuickAdd    bool          `json:"quickAdd"`
}

// MenuFetch is one level of the menu tree: either child categories or the
// items of a leaf category.
type MenuFetch struct {
	StoreID          int                  `json:"storeId"`
	FulfilmentMethod FulfilmentMethodType `json:"fulfilmentMethod"`
	ParentCategoryID int                  `json:"parentCategoryId"`
	Categories       []MenuCategory       `json:"categories,omitempty"`
	Items            []MenuItem           `json:"menuItems,omitempty"`
	FetchTimestamp   time.Time            `json:"fetchTimestamp"`
}

type MenuSearchResult struct {
	Term       string         `json:"term"`
	Categories []MenuCategory `json:"categories"`
	Items      []MenuItem     `json:"menuItems"`
}
