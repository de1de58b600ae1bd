package capability

import (
	"context"
	"fmt"
	"time"
)

// Simulated3D stands in for a 3D generation service: it waits, then
// returns a placeholder model URL in the requested format.
type Simulated3D struct {
	delay time.Duration
	now   func() time.Time
}

// NewSimulated3D creates a simulated 3D backend.
func NewSimulated3D(delay time.Duration) *Simulated3D {
	return &Simulated3D{delay: delay, now: time.Now}
}

func (s *Simulated3D) Name() string { return "simulated-3d" }

func (s *Simulated3D) IsAvailable(_ context.Context) bool { return true }

func (s *Simulated3D) Execute(ctx context.Context, req Request) (*Output, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	format, _ := req.Input["format"].(string)
	url := fmt.Sprintf("https://example.com/3d-model-%d.%s", s.now().UnixMilli(), orDefault(format, DefaultFormat3D))
	return &Output{
		PrimaryResultURL: url,
		Raw:              map[string]any{"model_mesh": map[string]any{"url": url}},
	}, nil
}
