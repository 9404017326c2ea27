package models

import "time"

// Transaction is one row of the retail dataset after type coercion.
// Amount is derived as Quantity * UnitValue and is only meaningful
// when HasAmount is true; a numeric parse failure in the source row
// nulls the amount but keeps the row.
type Transaction struct {
	TransactionID string
	ItemID        string
	ItemLabel     string
	Quantity      int
	UnitValue     float64
	Timestamp     time.Time
	CustomerID    string // empty when the source row had no customer id
	Region        string
	Amount        float64
	HasAmount     bool
}

type DailySales struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

type ItemSales struct {
	ItemLabel string  `json:"item_label"`
	Amount    float64 `json:"amount"`
}

type ItemQuantity struct {
	ItemLabel string `json:"item_label"`
	Quantity  int    `json:"quantity"`
}

type FrequencyBucket struct {
	Purchases int `json:"purchases"`
	Customers int `json:"customers"`
}

type RegionAmount struct {
	Region string  `json:"region"`
	Amount float64 `json:"amount"`
}

type RegionCustomers struct {
	Region    string `json:"region"`
	Customers int    `json:"customers"`
}

type PeriodSales struct {
	Period string  `json:"period"`
	Amount float64 `json:"amount"`
}
