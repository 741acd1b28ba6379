package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/1broseidon/mactile/internal/ipc"
)

// printReceipt reports what the daemon acted on. A receipt without a
// target is a valid outcome (raise with no match, focus off the edge).
func printReceipt(r *ipc.ReceiptData) {
	if r == nil {
		return
	}
	if r.Target == nil {
		fmt.Printf("%s: no target\n", r.Kind)
		return
	}
	title := r.Target.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("%s: %s: %s (pid %d id %d, %s)\n",
		r.Kind, r.Target.App, title, r.Target.PID, r.Target.ID, r.Selected)
}

func runPlace(args []string) int {
	fs := flag.NewFlagSet("place", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cols := fs.Int("cols", 0, "Grid columns (default: daemon config)")
	rows := fs.Int("rows", 0, "Grid rows (default: daemon config)")
	pid := fs.Int("pid", 0, "Act on this app's focused window instead of the global one")
	id := fs.Uint("id", 0, "Act on this window id (requires --pid)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile place [options] <col> <row>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Place a window into the grid cell at <col>,<row> (0-based).")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "place requires <col> and <row>")
		fs.Usage()
		return 2
	}
	col, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid col %q\n", fs.Arg(0))
		return 2
	}
	row, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid row %q\n", fs.Arg(1))
		return 2
	}
	if *id != 0 && *pid == 0 {
		fmt.Fprintln(os.Stderr, "--id requires --pid")
		return 2
	}

	payload := ipc.PlacePayload{
		Cols: *cols,
		Rows: *rows,
		Col:  col,
		Row:  row,
	}
	if *id != 0 {
		payload.Target = &ipc.KeyData{PID: int32(*pid), ID: uint32(*id)}
	} else if *pid != 0 {
		payload.PID = int32(*pid)
	}

	receipt, err := newClient().Place(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printReceipt(receipt)
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cols := fs.Int("cols", 0, "Grid columns (default: daemon config)")
	rows := fs.Int("rows", 0, "Grid rows (default: daemon config)")
	pid := fs.Int("pid", 0, "Act on this app's focused window instead of the global one")
	id := fs.Uint("id", 0, "Act on this window id (requires --pid)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile move [options] <left|right|up|down>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move a window one grid cell. The window snaps to the grid first")
		fmt.Fprintln(os.Stderr, "if it is not already on a cell; moves clamp at screen edges.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "move requires a direction")
		fs.Usage()
		return 2
	}
	dir := fs.Arg(0)
	if _, err := ipc.ParseMoveDir(dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *id != 0 && *pid == 0 {
		fmt.Fprintln(os.Stderr, "--id requires --pid")
		return 2
	}

	payload := ipc.MovePayload{
		Cols: *cols,
		Rows: *rows,
		Dir:  dir,
	}
	if *id != 0 {
		payload.Target = &ipc.KeyData{PID: int32(*pid), ID: uint32(*id)}
	} else if *pid != 0 {
		payload.PID = int32(*pid)
	}

	receipt, err := newClient().Move(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printReceipt(receipt)
	return 0
}

func runRaise(args []string) int {
	fs := flag.NewFlagSet("raise", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	app := fs.String("app", "", "App name pattern (regex)")
	title := fs.String("title", "", "Window title pattern (regex)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile raise [--app PATTERN] [--title PATTERN]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Raise the next window matching the patterns, cycling through")
		fmt.Fprintln(os.Stderr, "matches on repeat invocations. With no patterns, cycles all")
		fmt.Fprintln(os.Stderr, "windows.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "raise takes no positional arguments")
		fs.Usage()
		return 2
	}

	receipt, err := newClient().Raise(ipc.RaisePayload{App: *app, Title: *title})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printReceipt(receipt)
	return 0
}

func runHide(args []string) int {
	fs := flag.NewFlagSet("hide", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile hide [on|off|toggle]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Park the focused window in a screen corner, or restore it to")
		fmt.Fprintln(os.Stderr, "where it was. Default is toggle.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "hide takes at most one argument")
		fs.Usage()
		return 2
	}
	desired := fs.Arg(0)
	if _, err := ipc.ParseDesired(desired); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	receipt, err := newClient().Hide(ipc.HidePayload{Desired: desired})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printReceipt(receipt)
	return 0
}

func runFocus(args []string) int {
	fs := flag.NewFlagSet("focus", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile focus <left|right|up|down>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move focus to the nearest window in the given direction.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "focus requires a direction")
		fs.Usage()
		return 2
	}
	dir := fs.Arg(0)
	if _, err := ipc.ParseMoveDir(dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	receipt, err := newClient().Focus(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printReceipt(receipt)
	return 0
}

func runFullscreen(args []string) int {
	fs := flag.NewFlagSet("fullscreen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	native := fs.Bool("native", false, "Use native (space-owning) fullscreen instead of maximize")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mactile fullscreen [--native] [on|off|toggle]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Toggle fullscreen on the focused window. Default is toggle.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "fullscreen takes at most one argument")
		fs.Usage()
		return 2
	}
	desired := fs.Arg(0)
	if _, err := ipc.ParseDesired(desired); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	receipt, err := newClient().Fullscreen(ipc.FullscreenPayload{Desired: desired, Native: *native})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printReceipt(receipt)
	return 0
}
