//go:build darwin

package platform

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework CoreFoundation
#include <stdbool.h>
#include <stdlib.h>
#include <string.h>
#include <ApplicationServices/ApplicationServices.h>

// Private HIServices symbol mapping an AX window element to its CG
// window number. Stable since 10.10 and the only reliable join between
// the AX and CG worlds.
extern AXError _AXUIElementGetWindow(AXUIElementRef elem, uint32_t *out);

static CFStringRef mt_cfstr(const char *s) {
	return CFStringCreateWithCString(kCFAllocatorDefault, s, kCFStringEncodingUTF8);
}

static AXError mt_copy_attr(AXUIElementRef el, const char *name, CFTypeRef *out) {
	CFStringRef attr = mt_cfstr(name);
	AXError err = AXUIElementCopyAttributeValue(el, attr, out);
	CFRelease(attr);
	return err;
}

static AXError mt_set_attr(AXUIElementRef el, const char *name, CFTypeRef val) {
	CFStringRef attr = mt_cfstr(name);
	AXError err = AXUIElementSetAttributeValue(el, attr, val);
	CFRelease(attr);
	return err;
}

static AXError mt_settable(AXUIElementRef el, const char *name, Boolean *out) {
	CFStringRef attr = mt_cfstr(name);
	AXError err = AXUIElementIsAttributeSettable(el, attr, out);
	CFRelease(attr);
	return err;
}

static AXError mt_perform(AXUIElementRef el, const char *name) {
	CFStringRef action = mt_cfstr(name);
	AXError err = AXUIElementPerformAction(el, action);
	CFRelease(action);
	return err;
}

static AXError mt_window_number(AXUIElementRef el, uint32_t *out) {
	return _AXUIElementGetWindow(el, out);
}

static bool mt_axvalue_point(CFTypeRef v, double *x, double *y) {
	CGPoint p;
	if (v == NULL || CFGetTypeID(v) != AXValueGetTypeID()) {
		return false;
	}
	if (!AXValueGetValue((AXValueRef)v, kAXValueTypeCGPoint, &p)) {
		return false;
	}
	*x = p.x;
	*y = p.y;
	return true;
}

static bool mt_axvalue_size(CFTypeRef v, double *w, double *h) {
	CGSize s;
	if (v == NULL || CFGetTypeID(v) != AXValueGetTypeID()) {
		return false;
	}
	if (!AXValueGetValue((AXValueRef)v, kAXValueTypeCGSize, &s)) {
		return false;
	}
	*w = s.width;
	*h = s.height;
	return true;
}

static CFTypeRef mt_axvalue_make_point(double x, double y) {
	CGPoint p = CGPointMake(x, y);
	return (CFTypeRef)AXValueCreate(kAXValueTypeCGPoint, &p);
}

static CFTypeRef mt_axvalue_make_size(double w, double h) {
	CGSize s = CGSizeMake(w, h);
	return (CFTypeRef)AXValueCreate(kAXValueTypeCGSize, &s);
}

static bool mt_cfbool(CFTypeRef v, bool *out) {
	if (v == NULL || CFGetTypeID(v) != CFBooleanGetTypeID()) {
		return false;
	}
	*out = CFBooleanGetValue((CFBooleanRef)v);
	return true;
}

static CFTypeRef mt_bool_value(bool b) {
	return (CFTypeRef)(b ? kCFBooleanTrue : kCFBooleanFalse);
}

static bool mt_cfstring_copy(CFTypeRef v, char *buf, size_t buflen) {
	if (v == NULL || CFGetTypeID(v) != CFStringGetTypeID()) {
		return false;
	}
	return CFStringGetCString((CFStringRef)v, buf, (CFIndex)buflen, kCFStringEncodingUTF8);
}

typedef struct {
	uint32_t number;
	int32_t  pid;
	int32_t  layer;
	double   x, y, w, h;
	bool     has_bounds;
	bool     has_space;
	int64_t  space;
	char     app[256];
	char     title[256];
} mt_window_row;

// mt_list_windows fills rows front-to-back from the CG window server.
// Returns the number of rows written.
static int mt_list_windows(uint32_t option, mt_window_row *rows, int max) {
	CFArrayRef list = CGWindowListCopyWindowInfo((CGWindowListOption)option, kCGNullWindowID);
	if (list == NULL) {
		return 0;
	}
	int n = 0;
	CFIndex count = CFArrayGetCount(list);
	CFStringRef spaceKey = mt_cfstr("kCGWindowWorkspace");
	for (CFIndex i = 0; i < count && n < max; i++) {
		CFDictionaryRef d = (CFDictionaryRef)CFArrayGetValueAtIndex(list, i);
		if (d == NULL || CFGetTypeID(d) != CFDictionaryGetTypeID()) {
			continue;
		}
		mt_window_row *row = &rows[n];
		memset(row, 0, sizeof(*row));

		CFNumberRef num = (CFNumberRef)CFDictionaryGetValue(d, kCGWindowNumber);
		if (num == NULL || !CFNumberGetValue(num, kCFNumberSInt32Type, &row->number)) {
			continue;
		}
		num = (CFNumberRef)CFDictionaryGetValue(d, kCGWindowOwnerPID);
		if (num == NULL || !CFNumberGetValue(num, kCFNumberSInt32Type, &row->pid)) {
			continue;
		}
		num = (CFNumberRef)CFDictionaryGetValue(d, kCGWindowLayer);
		if (num != NULL) {
			CFNumberGetValue(num, kCFNumberSInt32Type, &row->layer);
		}
		num = (CFNumberRef)CFDictionaryGetValue(d, spaceKey);
		if (num != NULL && CFNumberGetValue(num, kCFNumberSInt64Type, &row->space)) {
			row->has_space = true;
		}
		CFDictionaryRef bounds = (CFDictionaryRef)CFDictionaryGetValue(d, kCGWindowBounds);
		if (bounds != NULL) {
			CGRect r;
			if (CGRectMakeWithDictionaryRepresentation(bounds, &r)) {
				row->x = r.origin.x;
				row->y = r.origin.y;
				row->w = r.size.width;
				row->h = r.size.height;
				row->has_bounds = true;
			}
		}
		mt_cfstring_copy(CFDictionaryGetValue(d, kCGWindowOwnerName), row->app, sizeof(row->app));
		mt_cfstring_copy(CFDictionaryGetValue(d, kCGWindowName), row->title, sizeof(row->title));
		n++;
	}
	CFRelease(spaceKey);
	CFRelease(list);
	return n;
}

static bool mt_ax_trusted(void) {
	return AXIsProcessTrusted();
}

static bool mt_screen_capture_access(void) {
	return CGPreflightScreenCaptureAccess();
}
*/
import "C"

import (
	"unsafe"

	"github.com/1broseidon/mactile/internal/geom"
)

// AX error codes we branch on.
const (
	axErrSuccess              = 0
	axErrInvalidUIElement     = -25202
	axErrCannotComplete       = -25204
	axErrAttributeUnsupported = -25205
	axErrActionUnsupported    = -25206
	axErrNotImplemented       = -25208
	axErrAPIDisabled          = -25211
	axErrNoValue              = -25212
)

// Accessibility attribute and action names used by this package.
const (
	axAttrWindows      = "AXWindows"
	axAttrFocusedWin   = "AXFocusedWindow"
	axAttrPosition     = "AXPosition"
	axAttrSize         = "AXSize"
	axAttrRole         = "AXRole"
	axAttrSubrole      = "AXSubrole"
	axAttrTitle        = "AXTitle"
	axAttrMinimized    = "AXMinimized"
	axAttrFullScreen   = "AXFullScreen"
	axAttrZoomed       = "AXZoomed"
	axAttrMain         = "AXMain"
	axAttrFocused      = "AXFocused"
	axActionRaise      = "AXRaise"
	axMessagingTimeout = 0.2
)

// axErr maps a raw AXError to the package error taxonomy. NoValue is
// intentionally left to callers since "no value" is often a valid read
// result rather than a failure.
func axErr(code C.AXError) error {
	switch int32(code) {
	case axErrSuccess:
		return nil
	case axErrInvalidUIElement:
		return ErrWindowGone
	case axErrAPIDisabled:
		return ErrPermission
	case axErrAttributeUnsupported, axErrActionUnsupported, axErrNotImplemented:
		return ErrUnsupported
	default:
		return &AXError{Code: int32(code)}
	}
}

// CheckAccessibility reports whether the process holds Accessibility
// permission.
func CheckAccessibility() error {
	if !bool(C.mt_ax_trusted()) {
		return ErrPermission
	}
	return nil
}

// AccessibilityOK is CheckAccessibility as a boolean.
func AccessibilityOK() bool {
	return CheckAccessibility() == nil
}

// ScreenRecordingOK reports whether screen capture access is granted.
// Without it the window server redacts window titles in listings.
func ScreenRecordingOK() bool {
	return bool(C.mt_screen_capture_access())
}

// AXWindow is a retained Accessibility element for one window. Callers
// own the reference and must Release it when done.
type AXWindow struct {
	key WindowKey
	ref C.AXUIElementRef
}

// Key returns the pid and CG window number this element was resolved
// for.
func (w *AXWindow) Key() WindowKey { return w.key }

// Release drops the retained element reference. The AXWindow must not
// be used afterwards.
func (w *AXWindow) Release() {
	if w.ref != nil {
		C.CFRelease(C.CFTypeRef(unsafe.Pointer(w.ref)))
		w.ref = nil
	}
}

func releaseCF(v C.CFTypeRef) {
	if v != nil {
		C.CFRelease(v)
	}
}

func copyAttr(el C.AXUIElementRef, name string) (C.CFTypeRef, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var out C.CFTypeRef
	code := C.mt_copy_attr(el, cname, &out)
	if int32(code) == axErrNoValue {
		return nil, nil
	}
	if err := axErr(code); err != nil {
		return nil, err
	}
	return out, nil
}

func setAttr(el C.AXUIElementRef, name string, val C.CFTypeRef) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return axErr(C.mt_set_attr(el, cname, val))
}

func attrSettable(el C.AXUIElementRef, name string) (Tri, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var settable C.Boolean
	code := C.mt_settable(el, cname, &settable)
	if err := axErr(code); err != nil {
		if err == ErrUnsupported {
			return TriNo, nil
		}
		return TriUnknown, err
	}
	return TriFromBool(settable != 0), nil
}

func performAction(el C.AXUIElementRef, name string) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return axErr(C.mt_perform(el, cname))
}

// appElement creates the AX application element for pid with a short
// messaging timeout so a wedged app cannot stall callers for the
// system default of several seconds.
func appElement(pid int32) (C.AXUIElementRef, error) {
	if err := CheckAccessibility(); err != nil {
		return nil, err
	}
	el := C.AXUIElementCreateApplication(C.pid_t(pid))
	if el == nil {
		return nil, ErrAppElement
	}
	C.AXUIElementSetMessagingTimeout(el, C.float(axMessagingTimeout))
	return el, nil
}

// ResolveWindow finds the AX element whose CG window number matches
// key.ID among the app's windows.
func ResolveWindow(key WindowKey) (*AXWindow, error) {
	app, err := appElement(key.PID)
	if err != nil {
		return nil, err
	}
	defer releaseCF(C.CFTypeRef(unsafe.Pointer(app)))

	windows, err := copyAttr(app, axAttrWindows)
	if err != nil {
		return nil, err
	}
	if windows == nil {
		return nil, ErrWindowGone
	}
	defer releaseCF(windows)

	arr := C.CFArrayRef(unsafe.Pointer(windows))
	count := C.CFArrayGetCount(arr)
	for i := C.CFIndex(0); i < count; i++ {
		el := C.AXUIElementRef(C.CFArrayGetValueAtIndex(arr, i))
		if el == nil {
			continue
		}
		var num C.uint32_t
		if C.mt_window_number(el, &num) != axErrSuccess {
			continue
		}
		if WindowID(num) == key.ID {
			C.CFRetain(C.CFTypeRef(unsafe.Pointer(el)))
			return &AXWindow{key: key, ref: el}, nil
		}
	}
	return nil, ErrWindowGone
}

// FocusedWindow resolves the focused AX window of pid along with its
// CG window number.
func FocusedWindow(pid int32) (*AXWindow, error) {
	app, err := appElement(pid)
	if err != nil {
		return nil, err
	}
	defer releaseCF(C.CFTypeRef(unsafe.Pointer(app)))

	v, err := copyAttr(app, axAttrFocusedWin)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrFocusedWindow
	}
	el := C.AXUIElementRef(unsafe.Pointer(v))
	var num C.uint32_t
	if C.mt_window_number(el, &num) != axErrSuccess {
		releaseCF(v)
		return nil, ErrFocusedWindow
	}
	return &AXWindow{key: WindowKey{PID: pid, ID: WindowID(num)}, ref: el}, nil
}

// Pos reads the window's top-left position in global coordinates.
func (w *AXWindow) Pos() (geom.Point, error) {
	v, err := copyAttr(w.ref, axAttrPosition)
	if err != nil {
		return geom.Point{}, err
	}
	if v == nil {
		return geom.Point{}, ErrUnsupported
	}
	defer releaseCF(v)
	var x, y C.double
	if !bool(C.mt_axvalue_point(v, &x, &y)) {
		return geom.Point{}, ErrUnsupported
	}
	return geom.Point{X: float64(x), Y: float64(y)}, nil
}

// Size reads the window's size.
func (w *AXWindow) Size() (geom.Size, error) {
	v, err := copyAttr(w.ref, axAttrSize)
	if err != nil {
		return geom.Size{}, err
	}
	if v == nil {
		return geom.Size{}, ErrUnsupported
	}
	defer releaseCF(v)
	var cw, ch C.double
	if !bool(C.mt_axvalue_size(v, &cw, &ch)) {
		return geom.Size{}, ErrUnsupported
	}
	return geom.Size{W: float64(cw), H: float64(ch)}, nil
}

// Frame reads position and size as one rectangle.
func (w *AXWindow) Frame() (geom.Rect, error) {
	p, err := w.Pos()
	if err != nil {
		return geom.Rect{}, err
	}
	s, err := w.Size()
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.Rect{X: p.X, Y: p.Y, W: s.W, H: s.H}, nil
}

// SetPos moves the window's top-left corner.
func (w *AXWindow) SetPos(p geom.Point) error {
	v := C.mt_axvalue_make_point(C.double(p.X), C.double(p.Y))
	if v == nil {
		return ErrUnsupported
	}
	defer releaseCF(v)
	return setAttr(w.ref, axAttrPosition, v)
}

// SetSize resizes the window.
func (w *AXWindow) SetSize(s geom.Size) error {
	v := C.mt_axvalue_make_size(C.double(s.W), C.double(s.H))
	if v == nil {
		return ErrUnsupported
	}
	defer releaseCF(v)
	return setAttr(w.ref, axAttrSize, v)
}

func (w *AXWindow) stringAttr(name string) (string, error) {
	v, err := copyAttr(w.ref, name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	defer releaseCF(v)
	buf := make([]byte, 1024)
	if !bool(C.mt_cfstring_copy(v, (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))) {
		return "", nil
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n]), nil
}

func (w *AXWindow) boolAttr(name string) (Tri, error) {
	v, err := copyAttr(w.ref, name)
	if err != nil {
		if err == ErrUnsupported {
			return TriUnknown, nil
		}
		return TriUnknown, err
	}
	if v == nil {
		return TriUnknown, nil
	}
	defer releaseCF(v)
	var b C.bool
	if !bool(C.mt_cfbool(v, &b)) {
		return TriUnknown, nil
	}
	return TriFromBool(bool(b)), nil
}

func (w *AXWindow) setBoolAttr(name string, val bool) error {
	return setAttr(w.ref, name, C.mt_bool_value(C.bool(val)))
}

// Role reads the AX role, empty when unreadable.
func (w *AXWindow) Role() string {
	s, err := w.stringAttr(axAttrRole)
	if err != nil {
		return ""
	}
	return s
}

// Subrole reads the AX subrole, empty when unreadable.
func (w *AXWindow) Subrole() string {
	s, err := w.stringAttr(axAttrSubrole)
	if err != nil {
		return ""
	}
	return s
}

// Title reads the AX title, empty when unreadable.
func (w *AXWindow) Title() string {
	s, err := w.stringAttr(axAttrTitle)
	if err != nil {
		return ""
	}
	return s
}

// Minimized reads AXMinimized.
func (w *AXWindow) Minimized() (Tri, error) { return w.boolAttr(axAttrMinimized) }

// SetMinimized writes AXMinimized.
func (w *AXWindow) SetMinimized(v bool) error { return w.setBoolAttr(axAttrMinimized, v) }

// Fullscreen reads AXFullScreen.
func (w *AXWindow) Fullscreen() (Tri, error) { return w.boolAttr(axAttrFullScreen) }

// SetFullscreen writes AXFullScreen.
func (w *AXWindow) SetFullscreen(v bool) error { return w.setBoolAttr(axAttrFullScreen, v) }

// Zoomed reads AXZoomed.
func (w *AXWindow) Zoomed() (Tri, error) { return w.boolAttr(axAttrZoomed) }

// SetZoomed writes AXZoomed.
func (w *AXWindow) SetZoomed(v bool) error { return w.setBoolAttr(axAttrZoomed, v) }

// SettablePosSize probes whether AXPosition and AXSize accept writes.
func (w *AXWindow) SettablePosSize() (canPos, canSize Tri) {
	canPos, err := attrSettable(w.ref, axAttrPosition)
	if err != nil {
		canPos = TriUnknown
	}
	canSize, err = attrSettable(w.ref, axAttrSize)
	if err != nil {
		canSize = TriUnknown
	}
	return canPos, canSize
}

// Raise performs the AXRaise action on the window.
func (w *AXWindow) Raise() error {
	return performAction(w.ref, axActionRaise)
}

// SetMainFocused best-effort marks the window as the app's main and
// focused window. Failures are ignored since many apps reject these
// writes while still honoring AXRaise.
func (w *AXWindow) SetMainFocused() {
	_ = w.setBoolAttr(axAttrMain, true)
	_ = w.setBoolAttr(axAttrFocused, true)
}

// setAppFocusedWindow points the app's AXFocusedWindow attribute at win
// when the attribute accepts writes. Best effort.
func setAppFocusedWindow(win *AXWindow) {
	app, err := appElement(win.key.PID)
	if err != nil {
		return
	}
	defer releaseCF(C.CFTypeRef(unsafe.Pointer(app)))
	if settable, _ := attrSettable(app, axAttrFocusedWin); settable.IsYes() {
		_ = setAttr(app, axAttrFocusedWin, C.CFTypeRef(unsafe.Pointer(win.ref)))
	}
}

// AXPropsForKey resolves key and reads the full attribute set used by
// the world model. This call blocks on app messaging and must run off
// the caller's hot path.
func AXPropsForKey(key WindowKey) (AXProps, error) {
	win, err := ResolveWindow(key)
	if err != nil {
		return AXProps{}, err
	}
	defer win.Release()
	return win.Props(), nil
}

// Props reads the full attribute set from an already resolved window.
func (w *AXWindow) Props() AXProps {
	var p AXProps
	p.Role = w.Role()
	p.Subrole = w.Subrole()
	if r, err := w.Frame(); err == nil {
		fr := r
		p.Frame = &fr
	}
	p.Minimized, _ = w.Minimized()
	p.Fullscreen, _ = w.Fullscreen()
	p.Zoomed, _ = w.Zoomed()
	if v, err := w.boolAttr("AXHidden"); err == nil && v.Known() {
		p.Visible = TriFromBool(v.IsNo())
	}
	p.CanSetPos, p.CanSetSize = w.SettablePosSize()
	return p
}

// AXFocusedWindowID reads the CG window number of pid's focused AX
// window. Blocks on app messaging.
func AXFocusedWindowID(pid int32) (WindowID, error) {
	win, err := FocusedWindow(pid)
	if err != nil {
		return 0, err
	}
	defer win.Release()
	return win.Key().ID, nil
}

// AXTitleForKey resolves key and reads its AX title. Blocks on app
// messaging.
func AXTitleForKey(key WindowKey) (string, error) {
	win, err := ResolveWindow(key)
	if err != nil {
		return "", err
	}
	defer win.Release()
	return win.Title(), nil
}

// CG listing options. Values mirror CGWindowListOption.
const (
	cgOptionAll            = 0
	cgOptionOnScreenOnly   = 1 << 0
	cgOptionExcludeDesktop = 1 << 4
	listingCap             = 1024
)

func listRows(option uint32) []C.mt_window_row {
	rows := make([]C.mt_window_row, listingCap)
	n := int(C.mt_list_windows(C.uint32_t(option), &rows[0], C.int(len(rows))))
	return rows[:n]
}

// ListWindows returns the CG window listing front-to-back, including
// windows on inactive Spaces. Focused is set on the frontmost layer-0
// window of the frontmost application.
func ListWindows() ([]WindowInfo, error) {
	all := listRows(cgOptionAll | cgOptionExcludeDesktop)
	onScreen := make(map[WindowID]bool, 64)
	for _, row := range listRows(cgOptionOnScreenOnly | cgOptionExcludeDesktop) {
		onScreen[WindowID(row.number)] = true
	}

	frontPID := frontmostAppPID()
	focusedSet := false
	out := make([]WindowInfo, 0, len(all))
	for _, row := range all {
		info := WindowInfo{
			App:   C.GoString(&row.app[0]),
			Title: C.GoString(&row.title[0]),
			PID:   int32(row.pid),
			ID:    WindowID(row.number),
			Layer: int32(row.layer),
		}
		if bool(row.has_bounds) {
			r := geom.NewRect(float64(row.x), float64(row.y), float64(row.w), float64(row.h))
			info.Frame = &r
		}
		if bool(row.has_space) {
			info.SpaceID = int64(row.space)
		}
		info.OnScreen = onScreen[info.ID]
		// The window server only reports windows on active Spaces as
		// on-screen, which is the closest public signal we have.
		info.OnActiveSpace = info.OnScreen
		if !focusedSet && frontPID != 0 && info.PID == frontPID && info.Layer == 0 {
			info.Focused = true
			focusedSet = true
		}
		out = append(out, info)
	}
	return out, nil
}

// WindowPresent reports whether the CG window server still lists key.
func WindowPresent(key WindowKey) bool {
	for _, row := range listRows(cgOptionAll | cgOptionExcludeDesktop) {
		if WindowID(row.number) == key.ID && int32(row.pid) == key.PID {
			return true
		}
	}
	return false
}

// FrontmostWindow returns the focused window row, if any.
func FrontmostWindow() (WindowInfo, bool) {
	wins, err := ListWindows()
	if err != nil {
		return WindowInfo{}, false
	}
	for _, w := range wins {
		if w.Focused {
			return w, true
		}
	}
	return WindowInfo{}, false
}
