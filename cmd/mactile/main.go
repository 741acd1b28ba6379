package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/daemon"
	"github.com/1broseidon/mactile/internal/ipc"
	"github.com/1broseidon/mactile/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: mactile daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: mactile daemon")
			os.Exit(2)
		}
		if err := daemon.Run(); err != nil {
			log.Fatalf("Daemon failed: %v", err)
		}
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "frames":
		os.Exit(runFrames(os.Args[2:]))
	case "metrics":
		os.Exit(runMetrics(os.Args[2:]))
	case "place":
		os.Exit(runPlace(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "raise":
		os.Exit(runRaise(os.Args[2:]))
	case "hide":
		os.Exit(runHide(os.Args[2:]))
	case "focus":
		os.Exit(runFocus(os.Args[2:]))
	case "fullscreen":
		os.Exit(runFullscreen(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "inspect":
		os.Exit(runInspect(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mactile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the mactile daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  inspect             Open the interactive inspector")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  windows             List tracked windows (front to back)")
	fmt.Fprintln(w, "  frames              Show reconciled window geometry")
	fmt.Fprintln(w, "  metrics             Show placement and event metrics")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  place               Place a window into a grid cell")
	fmt.Fprintln(w, "  move                Move a window one grid cell")
	fmt.Fprintln(w, "  raise               Raise the next window matching app/title")
	fmt.Fprintln(w, "  hide                Park or restore the focused window")
	fmt.Fprintln(w, "  focus               Move focus to a neighboring window")
	fmt.Fprintln(w, "  fullscreen          Toggle fullscreen on the focused window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config path         Print the config file path")
	fmt.Fprintln(w, "  config show         Print configuration")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'mactile <command> --help' for command-specific options.")
}

// newClient resolves the daemon socket, honoring a configured override
// when the config loads cleanly.
func newClient() *ipc.Client {
	if cfg, err := config.Load(); err == nil {
		if path, err := cfg.SocketPath(); err == nil {
			return ipc.NewClientWithSocket(path)
		}
	}
	client, _ := ipc.NewClient()
	return client
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := newClient()
	st, err := client.Status()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:   %v\n", st.DaemonRunning)
	fmt.Printf("uptime_seconds:   %d\n", st.UptimeSeconds)
	fmt.Printf("windows:          %d\n", st.Windows)
	if st.Focused != nil {
		fmt.Printf("focused:          pid %d id %d\n", st.Focused.PID, st.Focused.ID)
	} else {
		fmt.Printf("focused:          none\n")
	}
	fmt.Printf("last_tick_us:     %d\n", st.LastTickMicros)
	fmt.Printf("poll_interval_ms: %d\n", st.PollIntervalMS)
	fmt.Printf("coalesce_pending: %d\n", st.CoalescePending)
	fmt.Printf("accessibility:    %s\n", st.Accessibility)
	fmt.Printf("screen_recording: %s\n", st.ScreenRecording)
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  mactile config path")
		fmt.Fprintln(os.Stderr, "  mactile config show [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  mactile config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  mactile config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "path":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/mactile/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if *printDefaults {
			data, err := yaml.Marshal(config.DefaultConfig())
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Print(string(data))
			return 0
		}

		_ = printEffective // default
		res, err := loadConfigFrom(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err := yaml.Marshal(res.Config)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/mactile/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfigFrom(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/mactile/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfigFrom(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func loadConfigFrom(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}

func runInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/mactile/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile inspect [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive inspector: live windows, event log, placement metrics")
		fmt.Fprintln(os.Stderr, "and a settings editor. Works read-only when the daemon is down.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab/shift-tab  Switch tabs (1-4 jump directly)")
		fmt.Fprintln(os.Stderr, "  j/k            Scroll the event log")
		fmt.Fprintln(os.Stderr, "  e              Edit settings")
		fmt.Fprintln(os.Stderr, "  ctrl-s         Save config (with diff preview)")
		fmt.Fprintln(os.Stderr, "  r              Refresh now")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C      Quit")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if err := tui.Run(*path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
