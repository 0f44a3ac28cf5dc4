package dto

import (
	"time"
	"wip-tracker-service/internal/domain"
)

// RegisterLotRequest is the board's registration form. The quantity comes
// from a text input and may arrive as a string; lotNumber is accepted for
// older clients.
type RegisterLotRequest struct {
	ModelName string         `json:"modelName"`
	LotNo     string         `json:"lotNo"`
	LotNumber string         `json:"lotNumber"`
	Quantity  domain.FlexInt `json:"quantity"`
	Route     string         `json:"route"`
}

func (r RegisterLotRequest) Number() string {
	if r.LotNo != "" {
		return r.LotNo
	}
	return r.LotNumber
}

// PatchLotRequest is decoded leniently: the board sends the whole lot back,
// and only the fields below are honoured. Position is owned by the server.
type PatchLotRequest struct {
	ModelName       *string            `json:"modelName"`
	LotNo           *string            `json:"lotNo"`
	LotNumber       *string            `json:"lotNumber"`
	Quantity        *domain.FlexInt    `json:"quantity"`
	Route           *string            `json:"route"`
	CurrentPosition *string            `json:"currentPosition"`
	AfviStatus      *domain.AfviStatus `json:"afviStatus"`
}

func (r PatchLotRequest) Number() *string {
	if r.LotNo != nil {
		return r.LotNo
	}
	return r.LotNumber
}

func (r PatchLotRequest) Qty() *int {
	if r.Quantity == nil {
		return nil
	}
	q := int(*r.Quantity)
	return &q
}

type HoldingRequest struct {
	IsHolding   *bool   `json:"isHolding"`
	HoldingMemo *string `json:"holdingMemo"`
}

type PositionResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type LotResponse struct {
	ID              string             `json:"id"`
	ModelName       string             `json:"modelName"`
	LotNumber       string             `json:"lotNo"`
	Quantity        int                `json:"quantity"`
	Route           string             `json:"route"`
	CurrentPosition string             `json:"currentPosition"`
	Position        PositionResponse   `json:"position"`
	Status          string             `json:"status"`
	RegisteredAt    time.Time          `json:"registeredAt"`
	ShippedAt       *time.Time         `json:"shippedAt,omitempty"`
	TotalTime       int64              `json:"totalTime,omitempty"`
	IsHolding       bool               `json:"isHolding"`
	HoldingMemo     *string            `json:"holdingMemo"`
	AfviStatus      *domain.AfviStatus `json:"afviStatus,omitempty"`
}

type ShipLotResponse struct {
	Success bool        `json:"success"`
	Product LotResponse `json:"product"`
}

func NewLotResponse(l *domain.Lot) LotResponse {
	return LotResponse{
		ID:              l.ID,
		ModelName:       l.ModelName,
		LotNumber:       l.LotNumber,
		Quantity:        l.Quantity,
		Route:           l.Route,
		CurrentPosition: l.Lane,
		Position:        PositionResponse{X: l.Position.X, Y: l.Position.Y},
		Status:          string(l.Status),
		RegisteredAt:    l.RegisteredAt,
		ShippedAt:       l.ShippedAt,
		TotalTime:       l.TotalTimeMs,
		IsHolding:       l.IsHolding,
		HoldingMemo:     l.HoldingMemo,
		AfviStatus:      l.Afvi.Clone(),
	}
}

func NewLotResponses(lots []*domain.Lot) []LotResponse {
	out := make([]LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, NewLotResponse(l))
	}
	return out
}
