package simulate

import "github.com/dogwalk/server/internal/apierr"

// Client-facing errors this package can return, reusing the shared
// vocabulary from internal/apierr rather than its own sentinels, so the
// HTTP layer never needs a second translation table (§7).
var (
	ErrMapNotFound  = apierr.New(apierr.MapNotFound, "map not found")
	ErrUnknownToken = apierr.New(apierr.UnknownToken, "token not registered")
)
