// Package clock abstracts time so pacing and elapsed-time logic can be
// driven by a fake in tests.
package clock

import (
	"context"
	"time"
)

// Clock supplies the current time and a context-aware sleep. Sleep returns
// early with the context error when ctx is done.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
