package demand

import (
	"strconv"
	"strings"
	"time"
)

// VelocityScore converts the ticket quantities sold inside window into
// tickets per hour.
func VelocityScore(quantities []int, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	total := 0
	for _, q := range quantities {
		if q > 0 {
			total += q
		}
	}
	return float64(total) / window.Hours()
}

// member encodes one purchase as "<ulid>:<quantity>" so identical quantities
// recorded in the same millisecond stay distinct set members.
func member(id string, quantity int) string {
	return id + ":" + strconv.Itoa(quantity)
}

func quantityFromMember(m string) int {
	idx := strings.LastIndexByte(m, ':')
	if idx < 0 || idx == len(m)-1 {
		return 0
	}
	q, err := strconv.Atoi(m[idx+1:])
	if err != nil || q < 0 {
		return 0
	}
	return q
}
