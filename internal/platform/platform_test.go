package platform

import "testing"

func TestTriStates(t *testing.T) {
	if TriUnknown.Known() {
		t.Fatalf("expected TriUnknown to be not known")
	}
	if !TriFromBool(true).IsYes() || !TriFromBool(false).IsNo() {
		t.Fatalf("expected TriFromBool to map to yes/no")
	}
	cases := []struct {
		tri  Tri
		want string
	}{
		{TriUnknown, "unknown"},
		{TriYes, "true"},
		{TriNo, "false"},
	}
	for _, c := range cases {
		if got := c.tri.String(); got != c.want {
			t.Fatalf("expected %q, got %q", c.want, got)
		}
	}
}

func TestDesiredApply(t *testing.T) {
	if !DesiredOn.Apply(false) || !DesiredOn.Apply(true) {
		t.Fatalf("expected DesiredOn to always yield true")
	}
	if DesiredOff.Apply(true) || DesiredOff.Apply(false) {
		t.Fatalf("expected DesiredOff to always yield false")
	}
	if !DesiredToggle.Apply(false) || DesiredToggle.Apply(true) {
		t.Fatalf("expected DesiredToggle to invert the current state")
	}
}

func TestClampFlagsString(t *testing.T) {
	if got := (ClampFlags{}).String(); got != "none" {
		t.Fatalf("expected \"none\", got %q", got)
	}
	f := ClampFlags{Left: true, Right: true, Top: true, Bottom: true}
	// Edge names print in left,right,bottom,top order.
	if got := f.String(); got != "left,right,bottom,top" {
		t.Fatalf("expected full clamp string, got %q", got)
	}
	if !f.Any() || (ClampFlags{}).Any() {
		t.Fatalf("expected Any to track set flags")
	}
}
