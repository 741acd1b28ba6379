package tui

import (
	"strings"
	"testing"

	"github.com/1broseidon/mactile/internal/config"
)

func TestLineDiff(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want []diffLine
	}{
		{
			name: "identical inputs produce no diff",
			a:    []string{"x", "y"},
			b:    []string{"x", "y"},
			want: nil,
		},
		{
			name: "single replacement keeps surrounding context",
			a:    []string{"a", "b", "c", "d", "e"},
			b:    []string{"a", "b", "X", "d", "e"},
			want: []diffLine{
				{op: opSame, text: "a"},
				{op: opSame, text: "b"},
				{op: opDel, text: "c"},
				{op: opAdd, text: "X"},
				{op: opSame, text: "d"},
				{op: opSame, text: "e"},
			},
		},
		{
			name: "pure insertion",
			a:    []string{"a", "b"},
			b:    []string{"a", "m", "b"},
			want: []diffLine{
				{op: opSame, text: "a"},
				{op: opAdd, text: "m"},
				{op: opSame, text: "b"},
			},
		},
		{
			name: "pure deletion",
			a:    []string{"a", "m", "b"},
			b:    []string{"a", "b"},
			want: []diffLine{
				{op: opSame, text: "a"},
				{op: opDel, text: "m"},
				{op: opSame, text: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineDiff(tt.a, tt.b)
			if len(got) != len(tt.want) {
				t.Fatalf("lineDiff returned %d lines, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLineDiffCollapsesDistantContext(t *testing.T) {
	a := []string{"l0", "l1", "l2", "l3", "l4", "l5", "l6", "l7", "l8", "old"}
	b := []string{"l0", "l1", "l2", "l3", "l4", "l5", "l6", "l7", "l8", "new"}

	got := lineDiff(a, b)

	// Two context lines before the change, the change itself, and a
	// leading ellipsis for the collapsed head.
	want := []diffLine{
		{op: opSame, text: "..."},
		{op: opSame, text: "l7"},
		{op: opSame, text: "l8"},
		{op: opDel, text: "old"},
		{op: opAdd, text: "new"},
	}
	if len(got) != len(want) {
		t.Fatalf("lineDiff returned %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTrimContextNoChanges(t *testing.T) {
	lines := []diffLine{
		{op: opSame, text: "a"},
		{op: opSame, text: "b"},
	}
	if got := trimContext(lines, 2); got != nil {
		t.Errorf("trimContext on unchanged lines = %v, want nil", got)
	}
	if got := trimContext(nil, 2); got != nil {
		t.Errorf("trimContext on empty input = %v, want nil", got)
	}
}

func TestConfigDiff(t *testing.T) {
	orig := config.DefaultConfig()

	if got := configDiff(orig, cloneConfig(orig)); got != nil {
		t.Errorf("configDiff of identical configs = %v, want nil", got)
	}
	if got := configDiff(nil, orig); got != nil {
		t.Errorf("configDiff with nil original = %v, want nil", got)
	}

	curr := cloneConfig(orig)
	curr.Grid.Cols = 5

	lines := configDiff(orig, curr)
	if len(lines) == 0 {
		t.Fatal("configDiff of changed configs returned no lines")
	}

	var sawDel, sawAdd bool
	for _, l := range lines {
		if l.op == opDel && strings.Contains(l.text, "cols") {
			sawDel = true
		}
		if l.op == opAdd && strings.Contains(l.text, "cols: 5") {
			sawAdd = true
		}
	}
	if !sawDel || !sawAdd {
		t.Errorf("diff missing cols change (del=%v add=%v): %v", sawDel, sawAdd, lines)
	}
}

func TestCloneConfigIndependent(t *testing.T) {
	if cloneConfig(nil) != nil {
		t.Error("cloneConfig(nil) should return nil")
	}

	cfg := config.DefaultConfig()
	on := true
	cfg.World.AXFrontmost = &on

	clone := cloneConfig(cfg)
	if clone == nil {
		t.Fatal("cloneConfig returned nil for a valid config")
	}

	clone.Grid.Cols = 9
	if cfg.Grid.Cols == 9 {
		t.Error("mutating clone changed the original Grid.Cols")
	}

	if clone.World.AXFrontmost == nil {
		t.Fatal("clone lost AXFrontmost")
	}
	*clone.World.AXFrontmost = false
	if !*cfg.World.AXFrontmost {
		t.Error("mutating clone changed the original AXFrontmost")
	}
}

func TestFormatMicros(t *testing.T) {
	tests := []struct {
		us   int64
		want string
	}{
		{0, "0µs"},
		{500, "500µs"},
		{999, "999µs"},
		{1000, "1.0ms"},
		{2500, "2.5ms"},
		{150000, "150.0ms"},
	}
	for _, tt := range tests {
		if got := formatMicros(tt.us); got != tt.want {
			t.Errorf("formatMicros(%d) = %q, want %q", tt.us, got, tt.want)
		}
	}
}
