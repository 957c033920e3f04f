package domain

import "time"

// Now returns the current UTC time at the microsecond precision both storage
// dialects preserve.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
