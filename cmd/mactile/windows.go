package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/mactile/internal/ipc"
)

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile windows [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List tracked windows in z-order (frontmost first).")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	client := newClient()
	data, err := client.Windows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data.Windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	if len(data.Windows) == 0 {
		fmt.Println("No windows tracked.")
		return 0
	}
	for _, w := range data.Windows {
		marker := " "
		if w.Focused {
			marker = "*"
		}
		title := w.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s z=%-3d pid=%-6d id=%-6d %s: %s", marker, w.Z, w.PID, w.ID, w.App, title)
		if w.Frame != nil {
			fmt.Printf("  [%gx%g at %g,%g]", w.Frame.W, w.Frame.H, w.Frame.X, w.Frame.Y)
		}
		if !w.OnActiveSpace {
			fmt.Printf("  (space %d)", w.SpaceID)
		}
		fmt.Println()
	}
	return 0
}

func runFrames(args []string) int {
	fs := flag.NewFlagSet("frames", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile frames [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show reconciled per-window geometry (authoritative frame, mode,")
		fmt.Fprintln(os.Stderr, "display and space) for every tracked window.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "frames takes no arguments")
		fs.Usage()
		return 2
	}

	client := newClient()
	data, err := client.Frames()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data.Frames); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	if len(data.Frames) == 0 {
		fmt.Println("No frames reconciled.")
		return 0
	}
	for _, f := range data.Frames {
		fmt.Printf("pid=%-6d id=%-6d %-9s %-8s display=%d space=%d scale=%g  [%gx%g at %g,%g]\n",
			f.PID, f.ID, f.Kind, f.Mode, f.DisplayID, f.SpaceID, f.Scale,
			f.Frame.W, f.Frame.H, f.Frame.X, f.Frame.Y)
	}
	return 0
}

func runMetrics(args []string) int {
	fs := flag.NewFlagSet("metrics", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile metrics [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show placement attempt counters, AX pool gauges and event")
		fmt.Fprintln(os.Stderr, "subscription counters.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "metrics takes no arguments")
		fs.Usage()
		return 2
	}

	client := newClient()
	data, err := client.Metrics()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	printMetrics(data)
	return 0
}

func printMetrics(m *ipc.MetricsData) {
	fmt.Println("placement:")
	for _, st := range m.Stages {
		fmt.Printf("  %-10s attempts=%-5d verified=%-5d settle_ms=%d\n",
			st.Stage, st.Attempts, st.Verified, st.SettleMS)
	}
	fmt.Printf("  safe_parks=%d failures=%d\n", m.SafeParks, m.Failures)
	fmt.Println("ax_pool:")
	fmt.Printf("  inflight=%d peak_inflight=%d stale_drops=%d cache_size=%d\n",
		m.AXInflight, m.AXPeak, m.AXStaleDrops, m.AXCacheSize)
	fmt.Println("events:")
	fmt.Printf("  subscribers=%d published=%d lost=%d\n",
		m.Subscribers, m.Published, m.Lost)
}
