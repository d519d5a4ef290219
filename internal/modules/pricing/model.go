// README: Pricing configuration for metered rides.
package pricing

import (
	"time"

	"ecoscoot/internal/types"
)

// Pricing is the single authoritative tariff. MinimumRidePrice is legacy
// configuration kept for compatibility with older clients; metered billing
// never applies it.
type Pricing struct {
	ActivationFee    types.Money `json:"activationFee"`
	PerMinuteRate    types.Money `json:"perMinuteRate"`
	MinimumRidePrice types.Money `json:"minimumRidePrice"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func Default() Pricing {
	return Pricing{
		ActivationFee:    types.PLN(200),
		PerMinuteRate:    types.PLN(50),
		MinimumRidePrice: types.PLN(500),
		UpdatedAt:        time.Now().UTC(),
	}
}
