// README: Pricing service; quote previews with city-rate resolution.
package pricing

import (
	"context"
)

type Service struct {
	rates RatesStore
}

func NewService(rates RatesStore) *Service {
	return &Service{rates: rates}
}

// RatesForCity resolves per-city defaults; without a store it returns the
// platform defaults so pure pricing paths stay usable in tests.
func (s *Service) RatesForCity(ctx context.Context, city string) (CityRates, error) {
	if s.rates == nil {
		return DefaultRates(city), nil
	}
	return s.rates.RatesForCity(ctx, city)
}

// Preview quotes a booking without persisting anything. Rate fields left at
// zero are filled from the city defaults, mirroring order creation.
func (s *Service) Preview(ctx context.Context, city string, in QuoteInput) (Breakdown, error) {
	rates, err := s.RatesForCity(ctx, city)
	if err != nil {
		return Breakdown{}, err
	}
	if in.RadiusKm == 0 {
		in.RadiusKm = rates.DefaultRadiusKm
	}
	if in.PricePerExtraKm.Amount == 0 {
		in.PricePerExtraKm = rates.DefaultPerKm
	}
	if rates.MaxRadiusKm > 0 && in.RadiusKm > rates.MaxRadiusKm {
		in.RadiusKm = rates.MaxRadiusKm
	}
	return Quote(in)
}
