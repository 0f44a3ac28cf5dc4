package services

import (
	"slices"
	"strings"
	"time"
	"wip-tracker-service/internal/domain"
)

// SummarizeShipments aggregates shipped lots: counts, quantities, average
// registration-to-shipment lead time and the earliest registration.
// Registered lots are ignored.
func SummarizeShipments(lots []*domain.Lot) domain.ShippingSummary {
	var (
		summary   domain.ShippingSummary
		totalLead time.Duration
		byModel   = map[string]*domain.ModelShipment{}
	)

	for _, l := range lots {
		if l == nil || !l.Shipped() || l.ShippedAt == nil {
			continue
		}

		summary.TotalLots++
		summary.TotalQuantity += l.Quantity
		totalLead += l.ShippedAt.Sub(l.RegisteredAt)

		if summary.FirstRegisteredAt == nil || l.RegisteredAt.Before(*summary.FirstRegisteredAt) {
			at := l.RegisteredAt
			summary.FirstRegisteredAt = &at
		}

		m, ok := byModel[l.ModelName]
		if !ok {
			m = &domain.ModelShipment{ModelName: l.ModelName}
			byModel[l.ModelName] = m
		}
		m.Lots++
		m.Quantity += l.Quantity
	}

	if summary.TotalLots > 0 {
		summary.AverageLeadTime = totalLead / time.Duration(summary.TotalLots)
	}

	summary.ByModel = make([]domain.ModelShipment, 0, len(byModel))
	for _, m := range byModel {
		summary.ByModel = append(summary.ByModel, *m)
	}
	slices.SortFunc(summary.ByModel, func(a, b domain.ModelShipment) int {
		return strings.Compare(a.ModelName, b.ModelName)
	})

	return summary
}
