package dto

import "time"

type ModelShipmentResponse struct {
	ModelName string `json:"modelName"`
	Lots      int    `json:"lots"`
	Quantity  int    `json:"quantity"`
}

type ShippingSummaryResponse struct {
	TotalLots         int                     `json:"totalLots"`
	TotalQuantity     int                     `json:"totalQuantity"`
	AverageLeadTimeMs int64                   `json:"averageLeadTimeMs"`
	FirstRegisteredAt *time.Time              `json:"firstRegisteredAt"`
	ByModel           []ModelShipmentResponse `json:"byModel"`
}
