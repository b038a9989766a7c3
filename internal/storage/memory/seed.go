package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openride/backend/internal/domain/route"
)

// SeedDemoRoutes loads a handful of Lagos commuter routes so the service is
// usable out of the box in memory mode. Departure times are anchored to the
// next occurrence of each route's scheduled hour.
func (s *Store) SeedDemoRoutes(ctx context.Context) error {
	type seed struct {
		origin, destination string
		stops               []string
		hour, minute        int
		capacity            int
		price               float64
		rating              float64
		verified            bool
	}
	seeds := []seed{
		{"Ikeja", "VI", []string{"Oshodi", "Obalende"}, 8, 0, 12, 1500, 4.8, true},
		{"Lekki", "Marina", []string{"Ajah", "Ikoyi"}, 9, 0, 10, 1200, 4.5, true},
		{"Surulere", "Yaba", nil, 7, 30, 3, 800, 4.2, false},
		{"Ogba", "Lekki", []string{"Ikeja", "Obalende", "Ikoyi"}, 10, 0, 4, 2000, 4.9, true},
		{"VI", "Ikeja", []string{"Obalende", "Oshodi"}, 17, 0, 4, 1800, 4.6, true},
	}

	now := time.Now()
	for _, sd := range seeds {
		dep := time.Date(now.Year(), now.Month(), now.Day(), sd.hour, sd.minute, 0, 0, now.Location())
		if dep.Before(now) {
			dep = dep.Add(24 * time.Hour)
		}
		r := &route.Route{
			ID:             uuid.New(),
			DriverID:       uuid.New(),
			Origin:         sd.origin,
			Destination:    sd.destination,
			Stops:          sd.stops,
			Departure:      dep,
			SeatCapacity:   sd.capacity,
			PricePerSeat:   sd.price,
			DriverRating:   sd.rating,
			DriverVerified: sd.verified,
			Status:         route.StatusOpen,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.CreateRoute(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
