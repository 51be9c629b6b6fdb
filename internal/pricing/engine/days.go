package engine

import (
	"time"

	pricingdomain "github.com/smallbiznis/ticketprice/internal/pricing/domain"
)

const day = 24 * time.Hour

// DaysUntilEvent is ceil((event - now) / 24h). It is negative once the event
// is more than a day in the past.
func DaysUntilEvent(pctx pricingdomain.PricingContext) int64 {
	diff := pctx.EventDateTime.Sub(pctx.Now)
	days := int64(diff / day)
	if diff%day > 0 {
		days++
	}
	return days
}
