// README: Travel surcharge for distance beyond the provider's free radius.
package pricing

import (
	"math"

	"homely/internal/types"
)

// TravelFee charges only the kilometres beyond the intervention radius,
// rounded to the cent. An unknown distance yields a zero fee and zero extra
// kilometres; the booking records the rates as unknown rather than guessing.
func TravelFee(radiusKm float64, perKm types.Money, distanceKm float64, known bool) (types.Money, float64) {
	if !known {
		return types.Money{Amount: 0, Currency: perKm.Currency}, 0
	}
	extra := distanceKm - radiusKm
	if extra <= 0 {
		return types.Money{Amount: 0, Currency: perKm.Currency}, 0
	}
	fee := int64(math.Round(extra * float64(perKm.Amount)))
	return types.Money{Amount: fee, Currency: perKm.Currency}, extra
}
