package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the evaluation instant for pricing requests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// New returns a clock backed by the system time.
func New() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
