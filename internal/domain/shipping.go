package domain

import "time"

// Aggregate figures over shipped lots.
type ShippingSummary struct {
	TotalLots         int
	TotalQuantity     int
	AverageLeadTime   time.Duration
	FirstRegisteredAt *time.Time
	ByModel           []ModelShipment
}

// Per-model shipped totals.
type ModelShipment struct {
	ModelName string
	Lots      int
	Quantity  int
}
