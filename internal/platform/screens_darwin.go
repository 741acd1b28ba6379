//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#include <stdbool.h>
#import <Cocoa/Cocoa.h>

typedef struct {
	uint32_t did;
	double   fx, fy, fw, fh;
	double   vx, vy, vw, vh;
	double   scale;
} mt_display_row;

// AppKit reports screen geometry with a bottom-left origin. Everything
// above this layer works in the CG window server's top-left space, so
// rows are flipped against the primary screen height here.
static int mt_list_displays(mt_display_row *rows, int max) {
	@autoreleasepool {
		NSArray<NSScreen *> *screens = [NSScreen screens];
		if (screens.count == 0) {
			return 0;
		}
		double primaryH = [screens[0] frame].size.height;
		int n = 0;
		for (NSScreen *s in screens) {
			if (n >= max) {
				break;
			}
			mt_display_row *row = &rows[n];
			NSRect f = s.frame;
			NSRect v = s.visibleFrame;
			NSNumber *num = s.deviceDescription[@"NSScreenNumber"];
			row->did = num ? (uint32_t)num.unsignedIntValue : 0;
			row->fx = f.origin.x;
			row->fy = primaryH - (f.origin.y + f.size.height);
			row->fw = f.size.width;
			row->fh = f.size.height;
			row->vx = v.origin.x;
			row->vy = primaryH - (v.origin.y + v.size.height);
			row->vw = v.size.width;
			row->vh = v.size.height;
			row->scale = s.backingScaleFactor;
			n++;
		}
		return n;
	}
}

static int32_t mt_frontmost_pid(void) {
	@autoreleasepool {
		NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
		return app ? (int32_t)app.processIdentifier : 0;
	}
}

static bool mt_activate_pid(int32_t pid) {
	@autoreleasepool {
		NSRunningApplication *app =
			[NSRunningApplication runningApplicationWithProcessIdentifier:(pid_t)pid];
		if (app == nil) {
			return false;
		}
		return [app activateWithOptions:NSApplicationActivateIgnoringOtherApps];
	}
}
*/
import "C"

import "github.com/1broseidon/mactile/internal/geom"

const displayCap = 16

// Displays returns the attached screens in global top-left coordinates,
// main display first.
func Displays() ([]Display, error) {
	rows := make([]C.mt_display_row, displayCap)
	n := int(C.mt_list_displays(&rows[0], C.int(len(rows))))
	out := make([]Display, 0, n)
	for _, row := range rows[:n] {
		out = append(out, Display{
			ID:           uint32(row.did),
			Frame:        geom.NewRect(float64(row.fx), float64(row.fy), float64(row.fw), float64(row.fh)),
			VisibleFrame: geom.NewRect(float64(row.vx), float64(row.vy), float64(row.vw), float64(row.vh)),
			Scale:        float64(row.scale),
		})
	}
	return out, nil
}

// VisibleFrameContaining returns the visible frame of the display whose
// frame contains p, falling back to the main display.
func VisibleFrameContaining(p geom.Point) (geom.Rect, error) {
	ds, err := Displays()
	if err != nil {
		return geom.Rect{}, err
	}
	if len(ds) == 0 {
		return geom.Rect{}, ErrUnsupported
	}
	for _, d := range ds {
		if d.Frame.Contains(p.X, p.Y) {
			return d.VisibleFrame, nil
		}
	}
	return ds[0].VisibleFrame, nil
}

// frontmostAppPID reports the frontmost application's pid, 0 when none.
func frontmostAppPID() int32 {
	return int32(C.mt_frontmost_pid())
}

// ActivateApp asks the application owning pid to come to the front.
func ActivateApp(pid int32) error {
	if !bool(C.mt_activate_pid(C.int32_t(pid))) {
		return ErrActivationFailed
	}
	return nil
}
