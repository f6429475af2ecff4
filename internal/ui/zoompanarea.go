package ui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"gazer/internal/service"
	"gazer/internal/viewstate"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/math/f64"

	xdraw "golang.org/x/image/draw"
)

const (
	defaultMinZoom        = 0.02
	defaultMaxZoom        = 40.0
	defaultZoomScrollStep = 0.1 // Zoom step for scroll events
)

var errNoImage = errors.New("no image service")

// ZoomPanArea is a custom widget that draws the current image with the
// transform the playlist engine hands it. It implements playlist.Viewport.
type ZoomPanArea struct {
	widget.BaseWidget

	images      *service.ImageService
	originalImg image.Image
	info        *service.ImageInfo
	raster      *canvas.Raster
	background  color.Color

	scale viewstate.Vec2
	pan   viewstate.Vec2

	ready     chan struct{}
	readyOnce sync.Once

	isPanning bool

	OnZoom        func(factor float64, anchor viewstate.Vec2)
	OnPan         func(delta viewstate.Vec2)
	OnMiddleClick func()
}

// NewZoomPanArea creates a new ZoomPanArea widget that decodes images through images.
func NewZoomPanArea(images *service.ImageService, background color.Color) *ZoomPanArea {
	zpa := &ZoomPanArea{
		images:     images,
		background: background,
		scale:      viewstate.Vec2{X: 1, Y: 1},
		ready:      make(chan struct{}),
	}
	zpa.raster = canvas.NewRaster(zpa.draw)
	zpa.ExtendBaseWidget(zpa)
	return zpa
}

// Ready is closed the first time the widget is laid out with a non-zero size.
func (zpa *ZoomPanArea) Ready() <-chan struct{} {
	return zpa.ready
}

// ShowImage decodes path and makes it the displayed image.
func (zpa *ZoomPanArea) ShowImage(path string) (viewstate.Size, error) {
	if zpa.images == nil {
		return viewstate.Size{}, errNoImage
	}
	info, img, err := zpa.images.GetImageInfo(path)
	if err != nil {
		return viewstate.Size{}, err
	}
	zpa.originalImg = img
	zpa.info = info
	return viewstate.Size{Width: float64(info.Width), Height: float64(info.Height)}, nil
}

// Info returns the metadata of the displayed image, or nil.
func (zpa *ZoomPanArea) Info() *service.ImageInfo {
	return zpa.info
}

// CanvasSize waits until the widget has been laid out and returns its size.
func (zpa *ZoomPanArea) CanvasSize(ctx context.Context) (viewstate.Size, error) {
	select {
	case <-zpa.ready:
	case <-ctx.Done():
		return viewstate.Size{}, ctx.Err()
	}
	s := zpa.Size()
	return viewstate.Size{Width: float64(s.Width), Height: float64(s.Height)}, nil
}

// ApplyTransform sets the scale and pan used for the next frame.
func (zpa *ZoomPanArea) ApplyTransform(scale, pan viewstate.Vec2) {
	zpa.scale = scale
	zpa.pan = pan
	canvas.Refresh(zpa.raster)
}

// SetBackground changes the color drawn around the image.
func (zpa *ZoomPanArea) SetBackground(c color.Color) {
	zpa.background = c
	canvas.Refresh(zpa.raster)
}

func (zpa *ZoomPanArea) markReady(size fyne.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	zpa.readyOnce.Do(func() { close(zpa.ready) })
}

// draw is the rendering function for the canvas.Raster. w and h are device
// pixels; the engine works in canvas units, so the transform is rescaled.
func (zpa *ZoomPanArea) draw(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(zpa.background), image.Point{}, draw.Src)
	if zpa.originalImg == nil || w <= 0 || h <= 0 {
		return dst
	}
	px := 1.0
	if sw := zpa.Size().Width; sw > 0 {
		px = float64(w) / float64(sw)
	}
	m := f64.Aff3{
		zpa.scale.X * px, 0, zpa.pan.X * px,
		0, zpa.scale.Y * px, zpa.pan.Y * px,
	}
	xdraw.ApproxBiLinear.Transform(dst, m, zpa.originalImg, zpa.originalImg.Bounds(), xdraw.Over, nil)
	return dst
}

// CreateRenderer is a Fyne lifecycle method.
func (zpa *ZoomPanArea) CreateRenderer() fyne.WidgetRenderer {
	return &zoomPanAreaRenderer{zpa: zpa}
}

// Scrolled handles mouse wheel events for zooming.
func (zpa *ZoomPanArea) Scrolled(ev *fyne.ScrollEvent) {
	if zpa.OnZoom == nil || ev.Scrolled.DY == 0 {
		return
	}
	anchor := viewstate.Vec2{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	if ev.Position.IsZero() {
		// Some drivers report no position; zoom towards the center instead.
		anchor = viewstate.Vec2{X: float64(zpa.Size().Width) / 2, Y: float64(zpa.Size().Height) / 2}
	}
	factor := 1.0 + defaultZoomScrollStep
	if ev.Scrolled.DY < 0 {
		factor = 1.0 / factor
	}
	zpa.OnZoom(factor, anchor)
}

// MouseDown starts panning or re-adds the image on a middle click.
func (zpa *ZoomPanArea) MouseDown(ev *desktop.MouseEvent) {
	switch ev.Button {
	case desktop.MouseButtonPrimary:
		zpa.isPanning = true
	case desktop.MouseButtonTertiary:
		if zpa.OnMiddleClick != nil {
			zpa.OnMiddleClick()
		}
	}
}

// MouseUp stops panning.
func (zpa *ZoomPanArea) MouseUp(_ *desktop.MouseEvent) {
	zpa.isPanning = false
}

// Dragged handles mouse drag for panning.
func (zpa *ZoomPanArea) Dragged(ev *fyne.DragEvent) {
	if !zpa.isPanning || zpa.OnPan == nil {
		return
	}
	zpa.OnPan(viewstate.Vec2{X: float64(ev.Dragged.DX), Y: float64(ev.Dragged.DY)})
}

// DragEnd finalizes panning.
func (zpa *ZoomPanArea) DragEnd() {
	zpa.isPanning = false
}

// --- Renderer for ZoomPanArea ---
type zoomPanAreaRenderer struct{ zpa *ZoomPanArea }

func (r *zoomPanAreaRenderer) Layout(size fyne.Size) {
	r.zpa.raster.Resize(size)
	r.zpa.markReady(size)
}
func (r *zoomPanAreaRenderer) MinSize() fyne.Size           { return fyne.NewSize(100, 100) } // Basic min size
func (r *zoomPanAreaRenderer) Refresh()                     { canvas.Refresh(r.zpa.raster) }
func (r *zoomPanAreaRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.zpa.raster} }
func (r *zoomPanAreaRenderer) Destroy()                     {}

var _ fyne.Widget = (*ZoomPanArea)(nil)
var _ fyne.Scrollable = (*ZoomPanArea)(nil)
var _ fyne.Draggable = (*ZoomPanArea)(nil)
var _ desktop.Mouseable = (*ZoomPanArea)(nil)
