// Package session holds the state of one editing session: the current image,
// the active edit mode with its crop or mask state, debounced previews and
// the last user-visible error.
package session

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/cropper"
	"github.com/menta2k/photo-editor/pkg/edit"
	"github.com/menta2k/photo-editor/pkg/geometry"
	"github.com/menta2k/photo-editor/pkg/mask"
	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/types"
	"github.com/menta2k/photo-editor/pkg/upload"
)

// Config holds session settings
type Config struct {
	Debounce    time.Duration
	DropStale   bool
	Crop        cropper.Config
	CropAspect  float64
	Tool        mask.Tool
	ExpandRatio float64
	Fill        color.Color
	// OnPreview, if set, is called with every published preview
	OnPreview func(types.Image)
}

// DefaultConfig returns the stock session settings
func DefaultConfig() Config {
	return Config{
		Debounce:    DefaultDebounce,
		DropStale:   true,
		Crop:        cropper.DefaultConfig(),
		Tool:        mask.DefaultTool(),
		ExpandRatio: 16.0 / 9.0,
		Fill:        processing.DefaultFill,
	}
}

// Session is a single active document
type Session struct {
	mu     sync.Mutex
	config Config
	proc   *processing.Processor

	loaded  bool
	image   types.Image
	preview types.Image
	opts    types.ProcessingOptions
	display geometry.DisplayRect
	err     error

	mode        Mode
	crop        *cropper.Model
	mask        *mask.Model
	expandRatio float64

	capture   *Capture
	debouncer *Debouncer
	previewer *Previewer
}

// New creates an empty session
func New(proc *processing.Processor, config Config) *Session {
	if proc == nil {
		proc = processing.NewProcessor()
	}
	if config.ExpandRatio <= 0 {
		config.ExpandRatio = DefaultConfig().ExpandRatio
	}
	if config.Fill == nil {
		config.Fill = processing.DefaultFill
	}
	s := &Session{
		config:      config,
		proc:        proc,
		opts:        types.DefaultProcessingOptions(),
		expandRatio: config.ExpandRatio,
		debouncer:   NewDebouncer(config.Debounce),
	}
	s.capture = NewCapture(nil)
	s.previewer = NewPreviewer(proc, config.DropStale, s.onPreview)
	return s
}

// Close stops pending previews and waits for in-flight ones
func (s *Session) Close() {
	s.debouncer.Stop()
	s.previewer.Close()
}

// Accept validates an upload and makes it the current image. On failure the
// session is left as it was.
func (s *Session) Accept(v *upload.Validator, data []byte, declaredType string) error {
	img, err := v.Accept(data, declaredType)
	if err != nil {
		s.setErr(err)
		return err
	}
	s.Load(img)
	return nil
}

// Load makes img the current image and returns to Standard mode
func (s *Session) Load(img types.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveModeLocked()
	s.mode = Standard
	s.loaded = true
	s.image = img
	s.preview = img
	s.err = nil
}

// Loaded reports whether an image has been accepted
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Image returns the current image
func (s *Session) Image() (types.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.loaded
}

// Preview returns the latest preview, or the current image if none
func (s *Session) Preview() types.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// Options returns the current processing options
func (s *Session) Options() types.ProcessingOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Err returns the last user-visible error; it is cleared by the next
// successful action.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ErrMessage returns the last error as a single line, or ""
func (s *Session) ErrMessage() string {
	if err := s.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// Mode returns the active mode
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetDisplay records where the image is drawn. The crop region is
// re-initialized for the new size with the session's locked ratio; an
// invalid rect is ignored by it.
func (s *Session) SetDisplay(rect geometry.DisplayRect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = rect
	if s.crop != nil {
		s.crop.Initialize(rect.Width, rect.Height, s.config.CropAspect)
	}
}

// SetMode switches the edit mode. Leaving Cropping discards the crop region,
// leaving Masking clears the strokes; any drag in progress is ended.
func (s *Session) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m < Standard || m > Expanding {
		return fmt.Errorf("unknown mode %v", m)
	}
	if m != Standard && !s.loaded {
		return fmt.Errorf("no image loaded")
	}
	if m == s.mode {
		return nil
	}

	s.leaveModeLocked()
	switch m {
	case Cropping:
		s.crop = cropper.NewWithConfig(s.config.Crop)
		s.crop.Initialize(s.display.Width, s.display.Height, s.config.CropAspect)
	case Masking:
		s.mask = mask.NewWithTool(s.config.Tool)
	case Expanding:
		s.expandRatio = s.config.ExpandRatio
	}
	logging.Logger().Debug("mode change", "from", s.mode, "to", m)
	s.mode = m
	return nil
}

func (s *Session) leaveModeLocked() {
	s.endGestureLocked()
	switch s.mode {
	case Cropping:
		if s.crop != nil {
			s.crop.Discard()
		}
	case Masking:
		if s.mask != nil {
			s.mask.Clear()
		}
	}
	s.crop = nil
	s.mask = nil
}

// Crop returns the crop model; nil outside Cropping
func (s *Session) Crop() *cropper.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop
}

// Mask returns the mask model; nil outside Masking
func (s *Session) Mask() *mask.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask
}

// SetCropAspect locks the crop ratio (0 = free) and re-initializes the region
func (s *Session) SetCropAspect(ratio float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.CropAspect = ratio
	if s.crop == nil {
		return false
	}
	return s.crop.SetAspect(ratio)
}

// SetExpandRatio sets the target ratio used by ApplyExpand
func (s *Session) SetExpandRatio(ratio float64) error {
	if ratio <= 0 {
		return fmt.Errorf("expand ratio must be positive, got %g", ratio)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expandRatio = ratio
	return nil
}

// SetTool changes the brush for strokes drawn from now on
func (s *Session) SetTool(tool mask.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tool.Size > 0 {
		s.config.Tool = tool
	}
	if s.mask != nil {
		s.mask.SetTool(tool)
	}
}

// PointerDown starts a crop drag or a mask stroke at display position (x, y)
// and captures the pointer. It returns false when nothing was started.
func (s *Session) PointerDown(pointer int, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capture.Acquire(pointer) {
		return false
	}

	started := false
	switch s.mode {
	case Cropping:
		p := s.overlayPoint(x, y)
		started = s.crop.BeginDrag(s.crop.HandleAt(p), p)
	case Masking:
		if p, ok := s.imagePoint(x, y); ok {
			s.mask.PointerDown(p)
			started = true
		}
	}
	if !started {
		s.capture.Release(pointer)
	}
	return started
}

// PointerMove continues the gesture held by pointer
func (s *Session) PointerMove(pointer int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capture.Holds(pointer) {
		return
	}
	switch s.mode {
	case Cropping:
		s.crop.UpdateDrag(s.overlayPoint(x, y))
	case Masking:
		if p, ok := s.imagePoint(x, y); ok {
			s.mask.PointerMove(p)
		}
	}
}

// PointerUp ends the gesture held by pointer and releases the capture
func (s *Session) PointerUp(pointer int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capture.Holds(pointer) {
		return
	}
	if s.mode == Cropping {
		s.crop.UpdateDrag(s.overlayPoint(x, y))
	}
	s.endGestureLocked()
}

// PointerCancel ends the gesture without a final position
func (s *Session) PointerCancel(pointer int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capture.Holds(pointer) {
		return
	}
	s.endGestureLocked()
}

// Capture exposes the pointer capture state
func (s *Session) Capture() *Capture {
	return s.capture
}

func (s *Session) endGestureLocked() {
	if s.crop != nil {
		s.crop.EndDrag()
	}
	if s.mask != nil {
		s.mask.PointerUp()
	}
	s.capture.ReleaseAny()
}

// overlayPoint converts an absolute display position to crop overlay units
func (s *Session) overlayPoint(x, y float64) types.Point {
	return types.Point{X: x - s.display.Left, Y: y - s.display.Top}
}

func (s *Session) imagePoint(x, y float64) (types.Point, bool) {
	m, ok := geometry.NewMapper(s.display, s.image.Width, s.image.Height)
	if !ok {
		return types.Point{}, false
	}
	ix, iy := m.ToImage(x, y)
	return types.Point{X: ix, Y: iy}, true
}

// SetOptions validates opts and schedules a debounced preview
func (s *Session) SetOptions(opts types.ProcessingOptions) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return fmt.Errorf("no image loaded")
	}
	s.opts = opts
	img := s.image
	s.debouncer.Trigger(func() {
		s.previewer.Submit(context.Background(), img, opts)
	})
	return nil
}

// FlushPreview starts any debounced preview immediately
func (s *Session) FlushPreview() {
	s.debouncer.Flush()
}

// WaitPreviews blocks until every started preview has finished
func (s *Session) WaitPreviews() {
	s.previewer.Wait()
}

func (s *Session) onPreview(r PreviewResult) {
	s.mu.Lock()
	if r.Source != s.image.ID {
		// The document changed while this preview was running
		s.mu.Unlock()
		return
	}
	if r.Err != nil {
		s.err = r.Err
		s.mu.Unlock()
		return
	}
	s.preview = r.Image
	s.err = nil
	cb := s.config.OnPreview
	s.mu.Unlock()

	if cb != nil {
		cb(r.Image)
	}
}

// ApplyTransform applies the current options to the image
func (s *Session) ApplyTransform(ctx context.Context) error {
	s.debouncer.Stop()
	s.mu.Lock()
	img, loaded, opts := s.image, s.loaded, s.opts
	s.mu.Unlock()
	if !loaded {
		return fmt.Errorf("no image loaded")
	}
	out, err := s.proc.Transform(ctx, img, opts)
	return s.commit(img, out, err)
}

// ApplyCrop crops the image to the committed region and returns to Standard
func (s *Session) ApplyCrop(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != Cropping || s.crop == nil {
		s.mu.Unlock()
		return fmt.Errorf("not in cropping mode")
	}
	img := s.image
	mapper, ok := geometry.NewMapper(s.display, img.Width, img.Height)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("display size unknown")
	}
	s.endGestureLocked()
	region, err := s.crop.Commit(mapper)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	opts := s.opts
	opts.Scale, opts.ScaleY = 1, 0
	opts.Crop = &region
	s.crop = nil
	s.mode = Standard
	s.mu.Unlock()

	logging.Logger().Info("applying crop", "x", region.X, "y", region.Y, "width", region.Width, "height", region.Height)
	out, err := s.proc.Transform(ctx, img, opts)
	return s.commit(img, out, err)
}

// ApplyExpand expands the canvas to the selected ratio and returns to Standard
func (s *Session) ApplyExpand(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != Expanding {
		s.mu.Unlock()
		return fmt.Errorf("not in expanding mode")
	}
	img, ratio, fill := s.image, s.expandRatio, s.config.Fill
	s.mode = Standard
	s.mu.Unlock()

	out, err := s.proc.Expand(ctx, img, ratio, fill)
	return s.commit(img, out, err)
}

// ApplyEdit sends the image to the AI editor. The operation follows the mode:
// Standard enhances, Masking inpaints the strokes, Expanding outpaints.
// On failure the current image and mode are kept.
func (s *Session) ApplyEdit(ctx context.Context, editor *edit.Editor, prompt string) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return fmt.Errorf("no image loaded")
	}
	req := edit.Request{Prompt: prompt, Image: s.image}
	switch s.mode {
	case Standard:
		req.Op = edit.Enhance
	case Masking:
		s.endGestureLocked()
		req.Op = edit.Inpaint
		req.Strokes = s.mask.Strokes()
	case Expanding:
		req.Op = edit.Outpaint
		req.TargetRatio = s.expandRatio
		req.Fill = s.config.Fill
	default:
		s.mu.Unlock()
		return fmt.Errorf("AI edit is not available in %s mode", s.mode)
	}
	img := s.image
	s.mu.Unlock()

	out, err := editor.Apply(ctx, req)
	if err != nil {
		return s.commit(img, types.Image{}, err)
	}
	s.mu.Lock()
	if s.image.ID == img.ID {
		s.leaveModeLocked()
		s.mode = Standard
	}
	s.mu.Unlock()
	return s.commit(img, out, nil)
}

// Export encodes the current image for download
func (s *Session) Export(ctx context.Context, format types.Format, quality float64) (types.Image, string, error) {
	s.mu.Lock()
	img, loaded := s.image, s.loaded
	s.mu.Unlock()
	if !loaded {
		return types.Image{}, "", fmt.Errorf("no image loaded")
	}
	out, name, err := s.proc.Export(ctx, img, format, quality)
	if err != nil {
		s.setErr(err)
		return types.Image{}, "", err
	}
	s.setErr(nil)
	return out, name, nil
}

// commit replaces the image with out if prev is still current. Errors are
// recorded and leave the image untouched.
func (s *Session) commit(prev, out types.Image, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		return err
	}
	if s.image.ID != prev.ID {
		return fmt.Errorf("image changed during operation")
	}
	s.image = out
	s.preview = out
	s.err = nil
	return nil
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
