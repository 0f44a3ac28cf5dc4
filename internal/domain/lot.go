package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type LotStatus string

const (
	LotRegistered LotStatus = "registered"
	LotShipped    LotStatus = "shipped"
)

// Represents a physical batch of product units tracked through the lanes.
// JSON names follow the board's registry file (lotNo, currentPosition,
// totalTime); UnmarshalJSON also accepts lotNumber and a string quantity.
type Lot struct {
	ID           string      `json:"id"`
	ModelName    string      `json:"modelName"`
	LotNumber    string      `json:"lotNo"`
	Quantity     int         `json:"quantity"`
	Route        string      `json:"route,omitempty"`
	Lane         string      `json:"currentPosition"`
	Position     Position    `json:"position"`
	Status       LotStatus   `json:"status"`
	RegisteredAt time.Time   `json:"registeredAt"`
	ShippedAt    *time.Time  `json:"shippedAt,omitempty"`
	TotalTimeMs  int64       `json:"totalTime,omitempty"`
	IsHolding    bool        `json:"isHolding"`
	HoldingMemo  *string     `json:"holdingMemo"`
	Afvi         *AfviStatus `json:"afviStatus,omitempty"`
}

// UnmarshalJSON reads registry records written by older boards, which send
// the quantity as a form string and may name the lot number lotNumber.
func (l *Lot) UnmarshalJSON(data []byte) error {
	type lotFields Lot
	aux := struct {
		*lotFields
		Quantity  json.RawMessage `json:"quantity"`
		LotNumber *string         `json:"lotNumber"`
	}{lotFields: (*lotFields)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	q, err := ParseQuantity(aux.Quantity)
	if err != nil {
		return fmt.Errorf("lot %q: %w", l.ID, err)
	}
	l.Quantity = q

	if l.LotNumber == "" && aux.LotNumber != nil {
		l.LotNumber = *aux.LotNumber
	}
	return nil
}

func (l *Lot) Shipped() bool { return l.Status == LotShipped }

// Ship moves the lot into its terminal state.
func (l *Lot) Ship(at time.Time) error {
	if l.Shipped() {
		return ErrLotShipped
	}
	l.Status = LotShipped
	l.ShippedAt = &at
	l.TotalTimeMs = at.Sub(l.RegisteredAt).Milliseconds()
	return nil
}

// SetHolding flags the lot as held. The memo only survives while holding.
func (l *Lot) SetHolding(holding bool, memo *string) {
	l.IsHolding = holding
	if !holding {
		l.HoldingMemo = nil
		return
	}
	l.HoldingMemo = memo
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (l *Lot) Clone() *Lot {
	c := *l
	if l.ShippedAt != nil {
		t := *l.ShippedAt
		c.ShippedAt = &t
	}
	if l.HoldingMemo != nil {
		m := *l.HoldingMemo
		c.HoldingMemo = &m
	}
	c.Afvi = l.Afvi.Clone()
	return &c
}
