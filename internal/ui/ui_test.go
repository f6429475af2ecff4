package ui

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gazer/internal/playlist"
	"gazer/internal/playlistfile"
	"gazer/internal/service"
	"gazer/internal/settings"
	"gazer/internal/viewstate"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSolidPNG(t *testing.T, path string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	test.NewApp()
	store, err := settings.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	a := &App{Service: service.NewService(store, nil)}
	a.init(settings.Default())
	a.zoomPanArea.Resize(fyne.NewSize(400, 300))
	t.Cleanup(a.slideshowManager.Stop)
	return a
}

func TestFormatNumberWithCommas(t *testing.T) {
	assert.Equal(t, "0", formatNumberWithCommas(0))
	assert.Equal(t, "999", formatNumberWithCommas(999))
	assert.Equal(t, "1,000", formatNumberWithCommas(1000))
	assert.Equal(t, "1,234,567", formatNumberWithCommas(1234567))
	assert.Equal(t, "-12,345", formatNumberWithCommas(-12345))
}

func TestLogUIManager(t *testing.T) {
	test.NewApp()
	label := widget.NewLabel("")
	up := widget.NewButton("up", nil)
	down := widget.NewButton("down", nil)
	lm := NewLogUIManager(label, up, down, 2)
	lm.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	lm.UpdateLogDisplay()
	assert.Equal(t, "", label.Text)
	assert.True(t, up.Disabled())

	lm.AddLogMessage("one")
	lm.AddLogMessage("two")
	lm.AddLogMessage("three")
	assert.Equal(t, []string{"03:04:05 two", "03:04:05 three"}, lm.Messages())
	assert.Equal(t, "[2/2] 03:04:05 three", label.Text)
	assert.False(t, up.Disabled())
	assert.True(t, down.Disabled())

	lm.ShowPreviousLogMessage()
	assert.Equal(t, "[1/2] 03:04:05 two", label.Text)
	assert.True(t, up.Disabled())
	assert.False(t, down.Disabled())

	lm.ShowNextLogMessage()
	assert.Equal(t, "[2/2] 03:04:05 three", label.Text)
}

func TestZoomPanAreaWaitsForLayout(t *testing.T) {
	test.NewApp()
	zpa := NewZoomPanArea(service.NewImageService(), color.Black)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := zpa.CanvasSize(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	zpa.Resize(fyne.NewSize(320, 200))
	select {
	case <-zpa.Ready():
	default:
		t.Fatal("layout did not mark the area ready")
	}
	size, err := zpa.CanvasSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, viewstate.Size{Width: 320, Height: 200}, size)
}

func TestZoomPanAreaShowAndDraw(t *testing.T) {
	test.NewApp()
	bg := color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	zpa := NewZoomPanArea(service.NewImageService(), bg)
	zpa.Resize(fyne.NewSize(100, 100))

	path := writeSolidPNG(t, filepath.Join(t.TempDir(), "red.png"), 10, 10, color.RGBA{R: 255, A: 255})
	size, err := zpa.ShowImage(path)
	require.NoError(t, err)
	assert.Equal(t, viewstate.Size{Width: 10, Height: 10}, size)
	require.NotNil(t, zpa.Info())
	assert.Equal(t, "png", zpa.Info().Format)

	zpa.ApplyTransform(viewstate.Vec2{X: 2, Y: 2}, viewstate.Vec2{})
	out, ok := zpa.draw(100, 100).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, out.RGBAAt(50, 50))

	zpa.ApplyTransform(viewstate.Vec2{X: 1, Y: 1}, viewstate.Vec2{X: 60, Y: 60})
	out = zpa.draw(100, 100).(*image.RGBA)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, out.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(65, 65))

	_, err = zpa.ShowImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestZoomPanAreaInput(t *testing.T) {
	test.NewApp()
	zpa := NewZoomPanArea(service.NewImageService(), color.Black)
	zpa.Resize(fyne.NewSize(100, 80))

	var factor float64
	var anchor, pan viewstate.Vec2
	middle := 0
	zpa.OnZoom = func(f float64, a viewstate.Vec2) { factor, anchor = f, a }
	zpa.OnPan = func(d viewstate.Vec2) { pan = pan.Add(d) }
	zpa.OnMiddleClick = func() { middle++ }

	zpa.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 20)}, Scrolled: fyne.NewDelta(0, 3)})
	assert.InDelta(t, 1.1, factor, 1e-9)
	assert.Equal(t, viewstate.Vec2{X: 10, Y: 20}, anchor)

	zpa.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, -3)})
	assert.InDelta(t, 1/1.1, factor, 1e-9)
	assert.Equal(t, viewstate.Vec2{X: 50, Y: 40}, anchor, "no position zooms around the center")

	zpa.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(5, 5)})
	assert.Equal(t, viewstate.Vec2{}, pan, "drag without a press does not pan")

	zpa.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	zpa.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(3, 4)})
	zpa.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(1, -1)})
	zpa.DragEnd()
	assert.Equal(t, viewstate.Vec2{X: 4, Y: 3}, pan)

	zpa.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonTertiary})
	assert.Equal(t, 1, middle)
}

func TestHandleDropBuildsPlaylist(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	p1 := writeSolidPNG(t, filepath.Join(dir, "a.png"), 4, 4, color.White)
	p2 := writeSolidPNG(t, filepath.Join(dir, "b.png"), 4, 4, color.White)
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0644))

	a.handleDrop(fyne.Position{}, []fyne.URI{storage.NewFileURI(p1), storage.NewFileURI(notes), storage.NewFileURI(p2)})
	assert.Equal(t, playlist.Playlist, a.engine.Mode())
	assert.Equal(t, []string{p1, p2}, a.engine.Items())
	assert.Equal(t, p1, a.engine.CurrentPath())

	a.reAddCurrent()
	assert.Equal(t, []string{p1, p2, p1}, a.engine.Items())
	assert.Equal(t, 2, a.engine.Index())
}

func TestHandleDropLoadsFirstPlaylist(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	p1 := writeSolidPNG(t, filepath.Join(dir, "a.png"), 4, 4, color.White)
	p2 := writeSolidPNG(t, filepath.Join(dir, "b.png"), 4, 4, color.White)
	first := filepath.Join(dir, "first.gzpl")
	second := filepath.Join(dir, "second.gzpl")
	for _, pl := range []string{first, second} {
		require.NoError(t, playlistfile.Save(pl, playlistfile.Source{Items: []string{p2, p1}, CurrentIndex: -1},
			nil, settings.DefaultPlayback(), playlistfile.SaveOptions{}))
	}

	a.handleDrop(fyne.Position{}, []fyne.URI{storage.NewFileURI(p1), storage.NewFileURI(first), storage.NewFileURI(second)})
	assert.Equal(t, playlist.Playlist, a.engine.Mode())
	assert.Equal(t, []string{p2, p1}, a.engine.Items())
	assert.Equal(t, first, a.engine.PlaylistPath())

	recent, err := a.Service.RecentPlaylists()
	require.NoError(t, err)
	assert.Equal(t, []string{first}, recent)
}

func TestOpenArgsDirectoryBrowses(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	writeSolidPNG(t, filepath.Join(dir, "img10.png"), 4, 4, color.White)
	first := writeSolidPNG(t, filepath.Join(dir, "img2.png"), 4, 4, color.White)

	a.openArgs([]string{dir})
	assert.Equal(t, playlist.Single, a.engine.Mode())
	assert.Equal(t, first, a.engine.CurrentPath())
	pos, count := a.engine.Position()
	assert.Equal(t, 1, pos)
	assert.Equal(t, 2, count)

	a.step(1)
	assert.Equal(t, filepath.Join(dir, "img10.png"), a.engine.CurrentPath())
}

func TestPresetsApplyToDisplayedImage(t *testing.T) {
	a := newTestApp(t)
	p := writeSolidPNG(t, filepath.Join(t.TempDir(), "a.png"), 4, 4, color.White)
	a.openImage(p)

	fx := viewstate.EffectsConfig{EnablePulse: true, PulseInterval: 2, PulseDamping: 3, PulsePowerX: 10, PulsePowerY: 20}
	_, err := a.Service.SavePreset(2, "calm", fx)
	require.NoError(t, err)

	a.applyPreset(2)
	assert.Equal(t, fx, a.engine.Current().Effects)

	a.engine.SetEffects(viewstate.DefaultEffects())
	a.savePreset(0)
	got, err := a.Service.ApplyPreset(0)
	require.NoError(t, err)
	assert.Equal(t, viewstate.DefaultEffects(), got.Effects)
}
