package place

import (
	"fmt"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// VerificationError reports a placement run that exhausted its
// permitted attempts without the window settling on the target.
type VerificationError struct {
	Op           string
	Expected     geom.Rect
	Got          geom.Rect
	Epsilon      float64
	Clamped      platform.ClampFlags
	VisibleFrame geom.Rect
	Timeline     Timeline
}

func (e *VerificationError) Error() string {
	d := e.Got.Diffs(e.Expected)
	return fmt.Sprintf(
		"post-placement verification failed in %s: expected=%s got=%s eps=%.2f diff=(dx=%.2f, dy=%.2f, dw=%.2f, dh=%.2f) clamped=%s",
		e.Op, e.Expected, e.Got, e.Epsilon, d.X, d.Y, d.W, d.H, e.Clamped)
}
