package platform

import (
	"testing"

	"github.com/1broseidon/mactile/internal/geom"
)

func TestChooseFocusTargetPrefersAlignedRow(t *testing.T) {
	origin := geom.NewRect(0, 0, 400, 300)
	cands := []focusCandidate{
		// Closer by center but on a different row.
		{Key: key(1, 10), App: "Other", Frame: geom.NewRect(410, 500, 400, 300), IDMatch: true},
		// Same row, past the right edge.
		{Key: key(2, 20), App: "Other", Frame: geom.NewRect(420, 0, 400, 300), IDMatch: true},
	}
	got, ok := chooseFocusTarget("Term", 0, origin, MoveRight, cands)
	if !ok || got != key(2, 20) {
		t.Fatalf("expected aligned candidate 2/20, got %v ok=%v", got, ok)
	}
}

func TestChooseFocusTargetSameAppBeatsCloserOtherApp(t *testing.T) {
	origin := geom.NewRect(0, 0, 400, 300)
	cands := []focusCandidate{
		{Key: key(1, 10), App: "Other", Frame: geom.NewRect(420, 0, 400, 300), IDMatch: true},
		{Key: key(2, 20), App: "Term", Frame: geom.NewRect(900, 0, 400, 300), IDMatch: true},
	}
	got, ok := chooseFocusTarget("Term", 0, origin, MoveRight, cands)
	if !ok || got != key(2, 20) {
		t.Fatalf("expected same-app candidate 2/20, got %v ok=%v", got, ok)
	}
}

func TestChooseFocusTargetIDMatchOutranksDistance(t *testing.T) {
	origin := geom.NewRect(0, 0, 400, 300)
	cands := []focusCandidate{
		{Key: key(1, 10), App: "Other", Frame: geom.NewRect(420, 0, 400, 300)},
		{Key: key(2, 20), App: "Other", Frame: geom.NewRect(900, 0, 400, 300), IDMatch: true},
	}
	got, ok := chooseFocusTarget("Term", 0, origin, MoveRight, cands)
	if !ok || got != key(2, 20) {
		t.Fatalf("expected id-confirmed candidate 2/20, got %v ok=%v", got, ok)
	}
}

func TestChooseFocusTargetFallbackUsesCenters(t *testing.T) {
	origin := geom.NewRect(0, 0, 400, 300)
	// No row alignment anywhere; the candidate ahead by center wins.
	cands := []focusCandidate{
		{Key: key(1, 10), App: "Other", Frame: geom.NewRect(500, 400, 400, 300), IDMatch: true},
		// Directly below: dx is 0, not ahead for a rightward move.
		{Key: key(2, 20), App: "Other", Frame: geom.NewRect(0, 350, 400, 300), IDMatch: true},
	}
	got, ok := chooseFocusTarget("Term", 0, origin, MoveRight, cands)
	if !ok || got != key(1, 10) {
		t.Fatalf("expected fallback candidate 1/10, got %v ok=%v", got, ok)
	}
	got, ok = chooseFocusTarget("Term", 0, origin, MoveDown, cands)
	if !ok || got != key(2, 20) {
		t.Fatalf("expected downward candidate 2/20, got %v ok=%v", got, ok)
	}
}

func TestChooseFocusTargetUpUsesTopEdge(t *testing.T) {
	origin := geom.NewRect(0, 400, 400, 300)
	cands := []focusCandidate{
		{Key: key(1, 10), App: "Other", Frame: geom.NewRect(0, 80, 400, 300), IDMatch: true},
	}
	got, ok := chooseFocusTarget("Term", 0, origin, MoveUp, cands)
	if !ok || got != key(1, 10) {
		t.Fatalf("expected candidate above, got %v ok=%v", got, ok)
	}
}

func TestChooseFocusTargetSkipsOtherSpaces(t *testing.T) {
	origin := geom.NewRect(0, 0, 400, 300)
	cands := []focusCandidate{
		{Key: key(1, 10), App: "Other", SpaceID: 3, Frame: geom.NewRect(420, 0, 400, 300), IDMatch: true},
	}
	if _, ok := chooseFocusTarget("Term", 2, origin, MoveRight, cands); ok {
		t.Fatalf("expected no target when the only candidate is on another space")
	}
	// With the origin space unknown the candidate is considered.
	if _, ok := chooseFocusTarget("Term", 0, origin, MoveRight, cands); !ok {
		t.Fatalf("expected a target when spaces are unknown")
	}
}

func TestChooseFocusTargetNoCandidates(t *testing.T) {
	if _, ok := chooseFocusTarget("Term", 0, geom.NewRect(0, 0, 400, 300), MoveLeft, nil); ok {
		t.Fatalf("expected ok=false with no candidates")
	}
}
