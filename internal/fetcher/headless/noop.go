package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/webclipper/internal/clip"
)

// ErrUnavailable is returned when no browser is configured.
var ErrUnavailable = errors.New("headless fetcher not configured")

// Noop implements clip.Fetcher but always fails; it stands in when the
// headless fallback is disabled.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns ErrUnavailable.
func (Noop) Fetch(_ context.Context, _ clip.FetchRequest) (clip.FetchResponse, error) {
	return clip.FetchResponse{}, ErrUnavailable
}
