// Package correlation carries the id that ties a client's quote, forecast and
// registration calls together across logs and traces.
package correlation

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Header is read from inbound requests and echoed on every response.
const Header = "X-Correlation-Id"

const maxLength = 128

type key struct{}

// ID returns the correlation id on ctx, or "".
func ID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key{}).(string)
	return id
}

func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, key{}, id)
}

// Ensure adopts the inbound id when it is safe to log and mints a ULID otherwise.
// An id already on ctx wins over both.
func Ensure(ctx context.Context, inbound string) (context.Context, string) {
	if id := ID(ctx); id != "" {
		return ctx, id
	}
	id := strings.TrimSpace(inbound)
	if !usable(id) {
		id = ulid.Make().String()
	}
	return WithID(ctx, id), id
}

// IssuedAt reports when a minted id was created. Ids supplied by clients
// that are not ULIDs report false.
func IssuedAt(id string) (time.Time, bool) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}

func usable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
