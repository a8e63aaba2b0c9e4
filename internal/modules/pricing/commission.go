// README: Platform/provider revenue split at finalization.
package pricing

import "homely/internal/types"

// commissionPercent is the platform's cut of the final total.
const commissionPercent = 20

// SplitCommission divides the final order total between platform and
// provider. The provider side absorbs any rounding remainder so that
// commission + provider == total always holds.
func SplitCommission(total types.Money) (commission, provider types.Money) {
	commission = total.Percent(commissionPercent)
	provider = total.Sub(commission)
	return commission, provider
}
