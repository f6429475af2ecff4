// Package ui  Setup for the Gazer Application
package ui

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gazer/internal/playlist"
	"gazer/internal/playlistfile"
	"gazer/internal/scan"
	"gazer/internal/service"
	"gazer/internal/settings"
	"gazer/internal/slideshow"
	"gazer/internal/viewstate"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	frameInterval = time.Second / 60
	// layoutTimeout bounds how long an engine operation waits for the canvas.
	layoutTimeout = 2 * time.Second
)

var _ playlist.Viewport = (*ZoomPanArea)(nil)

// UI holds the widgets of the main window.
type UI struct {
	MainWin    fyne.Window
	mainModKey fyne.KeyModifier

	toolBar     *widget.Toolbar
	pauseAction *widget.ToolbarAction
	split       *container.Split

	statusPathLabel *widget.Label
	positionLabel   *widget.Label
	infoText        *widget.RichText

	statusLogLabel   *widget.Label
	statusLogUpBtn   *widget.Button
	statusLogDownBtn *widget.Button
}

// App represents the whole application with all its windows, widgets and functions
type App struct {
	app fyne.App
	UI  UI

	engine           *playlist.Engine
	zoomPanArea      *ZoomPanArea
	slideshowManager *slideshow.SlideshowManager
	logUIManager     *LogUIManager
	Service          *service.Service

	settings  settings.AppSettings
	animating bool
}

// addLogMessage adds a message to the UI log display.
func (a *App) addLogMessage(message string) {
	if a.logUIManager != nil {
		a.logUIManager.AddLogMessage(message)
	} else {
		log.Printf("LogUIManager not ready, console log: %s", message)
	}
}

// notify shows an engine notification in the log line and, when enabled,
// as a desktop notification.
func (a *App) notify(message string) {
	a.addLogMessage(message)
	if a.settings.ShowNotifications && a.app != nil {
		a.app.SendNotification(fyne.NewNotification("Gazer", message))
	}
}

// run executes an engine operation on the UI thread and refreshes the
// window afterwards. User-facing failures are reported by the engine's
// notifications; the error itself goes to the console.
func (a *App) run(op func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), layoutTimeout)
	defer cancel()
	if err := op(ctx); err != nil {
		log.Printf("Error: %v", err)
	}
	a.refreshView()
}

// refreshView updates everything that depends on the displayed image.
func (a *App) refreshView() {
	a.updateTitle()
	a.updateStatusBar()
	a.updateInfoText(a.zoomPanArea.Info())
	a.updatePauseIcon()
}

func (a *App) updateTitle() {
	if a.UI.MainWin == nil {
		return
	}
	title := "Gazer"
	if p := a.engine.CurrentPath(); p != "" {
		title = fmt.Sprintf("Gazer - %s", filepath.Base(p))
	}
	if pl := a.engine.PlaylistPath(); pl != "" {
		title += fmt.Sprintf(" [%s]", strings.TrimSuffix(filepath.Base(pl), filepath.Ext(pl)))
	}
	a.UI.MainWin.SetTitle(title)
}

// updateStatusBar updates the text of the status bar.
func (a *App) updateStatusBar() {
	if a.UI.statusPathLabel == nil {
		return
	}
	statusText := "Ready"
	position := ""
	if path := a.engine.CurrentPath(); path != "" {
		statusText = path
		pos, count := a.engine.Position()
		label := "Folder"
		if a.engine.Mode() == playlist.Playlist {
			label = "Playlist"
		}
		position = fmt.Sprintf("%s %d / %d", label, pos, count)
	}
	if a.slideshowManager.Running() {
		if a.slideshowManager.IsPaused() {
			position += " | Paused"
		} else {
			position += " | Playing"
		}
	}
	a.UI.statusPathLabel.SetText(statusText)
	a.UI.positionLabel.SetText(position)
}

// updateInfoText shows the metadata and view state of the displayed image
// in the info panel.
func (a *App) updateInfoText(info *service.ImageInfo) {
	if a.UI.infoText == nil {
		return
	}
	if a.engine.CurrentPath() == "" {
		a.UI.infoText.ParseMarkdown("# Info\n---\nNo image loaded.\n\nDrop images or a playlist here.")
		return
	}
	if info == nil {
		a.UI.infoText.ParseMarkdown("# Info\n---\nImage metadata not available.")
		return
	}

	exifString := "(not available)"
	if len(info.EXIFData) > 0 {
		keys := make([]string, 0, len(info.EXIFData))
		for k := range info.EXIFData {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var builder strings.Builder
		for _, k := range keys {
			builder.WriteString(fmt.Sprintf("- **%s**: %s\n\n", k, info.EXIFData[k]))
		}
		exifString = builder.String()
	}

	pos, count := a.engine.Position()
	md := fmt.Sprintf(`## Stats
**Mode:** %s

**Num:** %s

**Total:** %s

**Size:**   %s bytes

**Width:**   %d px

**Height:**  %d px

**Format:** %s

**Last modified:** %s

---
## View
%s

---
## EXIF Data
%s
`,
		a.engine.Mode(),
		formatNumberWithCommas(int64(pos)),
		formatNumberWithCommas(int64(count)),
		formatNumberWithCommas(info.Size),
		info.Width,
		info.Height,
		info.Format,
		service.FormatTime(info.ModTime),
		service.DescribeState(a.engine.Current()),
		exifString,
	)

	a.UI.infoText.ParseMarkdown(md)
}

// formatNumberWithCommas takes an integer and returns a string representation
// with commas as thousands separators.
func formatNumberWithCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		s = s[1:] // Temporarily remove sign for processing
	}
	length := len(s)
	if length <= 3 {
		if n < 0 {
			return "-" + s
		}
		return s
	}
	commas := (length - 1) / 3
	result := make([]byte, length+commas)
	for i, j, k := length-1, len(result)-1, 0; ; i, j = i-1, j-1 {
		result[j] = s[i]
		if i == 0 {
			if n < 0 {
				return "-" + string(result)
			}
			return string(result)
		}
		k++
		if k%3 == 0 {
			j--
			result[j] = ','
		}
	}
}

func (a *App) updatePauseIcon() {
	if a.UI.pauseAction == nil {
		return
	}
	if a.engine.Playback().AutoPlayEnabled {
		a.UI.pauseAction.SetIcon(theme.MediaPauseIcon())
	} else {
		a.UI.pauseAction.SetIcon(theme.MediaPlayIcon())
	}
	if a.UI.toolBar != nil {
		a.UI.toolBar.Refresh()
	}
}

// Handle toggles
func (a *App) togglePlay() {
	a.engine.ToggleAutoPlay()
	a.refreshView()
}

func (a *App) step(delta int) {
	a.run(func(ctx context.Context) error { return a.engine.Step(ctx, delta) })
}

func (a *App) firstImage() {
	if a.engine.Mode() != playlist.Playlist {
		return
	}
	a.run(func(ctx context.Context) error { return a.engine.GoTo(ctx, 0) })
}

func (a *App) lastImage() {
	if a.engine.Mode() != playlist.Playlist {
		return
	}
	_, count := a.engine.Position()
	a.run(func(ctx context.Context) error { return a.engine.GoTo(ctx, count-1) })
}

func (a *App) fitImage() {
	a.run(a.engine.FitCurrent)
}

func (a *App) exitPlaylist() {
	a.engine.ExitPlaylistMode()
	a.refreshView()
}

func (a *App) reAddCurrent() {
	a.run(a.engine.ReAddCurrent)
}

func (a *App) openImage(path string) {
	a.run(func(ctx context.Context) error { return a.engine.OpenSingle(ctx, path) })
}

func (a *App) loadPlaylist(path string) {
	a.run(func(ctx context.Context) error {
		if _, err := a.engine.LoadPlaylist(ctx, path); err != nil {
			return err
		}
		a.recordRecent(path)
		return nil
	})
}

func (a *App) savePlaylist(path string) {
	if filepath.Ext(path) == "" {
		path += playlistfile.Extension
	}
	opts := playlistfile.SaveOptions{AbsolutePathsOnly: a.settings.UseAbsolutePaths}
	if err := a.engine.SavePlaylist(path, opts); err != nil {
		log.Printf("Error: %v", err)
		a.refreshView()
		return
	}
	a.recordRecent(path)
	a.refreshView()
}

func (a *App) recordRecent(path string) {
	if err := a.Service.RecordRecent(path); err != nil {
		a.addLogMessage(fmt.Sprintf("Could not update recent playlists: %v", err))
		return
	}
	if a.UI.MainWin != nil {
		a.UI.MainWin.SetMainMenu(a.buildMainMenu())
	}
}

func (a *App) applyPreset(slot int) {
	p, err := a.Service.ApplyPreset(slot)
	if err != nil {
		a.addLogMessage(fmt.Sprintf("Preset %d is empty", slot+1))
		return
	}
	a.engine.SetEffects(p.Effects)
	a.addLogMessage(fmt.Sprintf("Applied preset %d (%s)", slot+1, p.Name))
	a.refreshView()
}

func (a *App) savePreset(slot int) {
	p, err := a.Service.SavePreset(slot, "", a.engine.Current().Effects)
	if err != nil {
		a.addLogMessage(fmt.Sprintf("Could not save preset %d: %v", slot+1, err))
		return
	}
	a.addLogMessage(fmt.Sprintf("Saved preset %d (%s)", slot+1, p.Name))
}

// handleDrop routes files dropped on the window. The first playlist file
// wins over everything else; otherwise the images (and the images of any
// dropped folders) go to the engine.
func (a *App) handleDrop(_ fyne.Position, uris []fyne.URI) {
	paths := make([]string, 0, len(uris))
	for _, u := range uris {
		if u.Scheme() == "file" {
			paths = append(paths, u.Path())
		}
	}
	d := scan.ClassifyDropped(paths)
	if len(d.Playlists) > 0 {
		if extra := len(d.Playlists) - 1; extra > 0 {
			a.notify(fmt.Sprintf("Only %s was loaded, %d other playlist files ignored", filepath.Base(d.Playlists[0]), extra))
		}
		a.loadPlaylist(d.Playlists[0])
		return
	}

	images := d.Images
	for _, p := range d.Ignored {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			found, err := scan.ListDirectory(p)
			if err != nil {
				a.addLogMessage(fmt.Sprintf("Could not read %s: %v", p, err))
				continue
			}
			images = append(images, found...)
		}
	}
	if len(images) == 0 {
		a.notify("No supported images dropped")
		return
	}
	a.run(func(ctx context.Context) error { return a.engine.DropFiles(ctx, images) })
}

// openArgs opens what was passed on the command line: a playlist, a folder,
// one image, or several images and folders as a new playlist.
func (a *App) openArgs(args []string) {
	if len(args) == 0 {
		a.refreshView()
		return
	}
	if len(args) == 1 {
		p := args[0]
		if playlistfile.IsPlaylistFile(p) {
			a.loadPlaylist(p)
			return
		}
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			images, err := scan.ListDirectory(p)
			if err != nil || len(images) == 0 {
				a.notify(fmt.Sprintf("No images in %s", p))
				a.refreshView()
				return
			}
			p = images[0]
		}
		a.openImage(p)
		return
	}
	images, err := scan.ExpandArgs(args)
	if err != nil {
		a.notify(err.Error())
	}
	if len(images) == 0 {
		a.refreshView()
		return
	}
	a.run(func(ctx context.Context) error { return a.engine.DropFiles(ctx, images) })
}

func (a *App) init(cfg settings.AppSettings) {
	a.settings = cfg
	a.slideshowManager = slideshow.NewSlideshowManager(
		time.Duration(cfg.Playback.AutoPlayInterval*float64(time.Second)), cfg.Playback.AutoPlayRandomness)

	a.zoomPanArea = NewZoomPanArea(a.Service.Images, toColor(cfg.Background))
	a.engine = playlist.New(a.zoomPanArea, playlist.Options{
		Playback: cfg.Playback,
		Effects:  cfg.Effects,
		AutoPlay: a.slideshowManager,
		Dispatch: func(fn func()) {
			fyne.Do(func() {
				fn()
				a.refreshView()
			})
		},
		Logger: func(message string) { log.Printf("[engine] %s", message) },
		Notify: a.notify,
	})

	a.zoomPanArea.OnZoom = func(factor float64, anchor viewstate.Vec2) {
		a.engine.UpdateCurrent(func(vs *viewstate.ViewState) {
			vs.ZoomAround(factor, anchor, defaultMinZoom, defaultMaxZoom)
		})
	}
	a.zoomPanArea.OnPan = func(delta viewstate.Vec2) {
		a.engine.UpdateCurrent(func(vs *viewstate.ViewState) { vs.PanBy(delta) })
	}
	a.zoomPanArea.OnMiddleClick = a.reAddCurrent
}

// animate drives the shake and pulse effects at a fixed frame rate.
func (a *App) animate() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()
	for now := range ticker.C {
		dt := now.Sub(last).Seconds()
		last = now
		fyne.Do(func() {
			fx := a.engine.Current().Effects
			active := fx.EnableShake || fx.EnablePulse
			// One more frame after the effects switch off puts the image back on its base pan.
			if active || a.animating {
				a.engine.Frame(dt)
			}
			a.animating = active
		})
	}
}

// startup waits for the first layout, then opens the command-line paths.
func (a *App) startup(args []string) {
	<-a.zoomPanArea.Ready()
	fyne.Do(func() { a.openArgs(args) })
}

// Command-line flags
var fullScreenFlag = flag.Bool("fullscreen", false, "Start in full screen mode.")
var dbPathFlag = flag.String("dbpath", "", "Directory holding the settings database.")

// CreateApplication is the GUI entrypoint
func CreateApplication() {
	flag.Parse()

	a := app.NewWithID("io.github.gazer")
	a.SetIcon(theme.FileImageIcon())

	ui := &App{app: a}

	appLoggerFunc := func(message string) {
		log.Printf("[gazer] %s", message)
	}

	store, err := settings.NewStore(*dbPathFlag, appLoggerFunc)
	if err != nil {
		log.Fatalf("Failed to initialize settings database: %v", err)
	}
	ui.Service = service.NewService(store, appLoggerFunc)
	cfg, err := ui.Service.LoadSettings()
	if err != nil {
		appLoggerFunc(fmt.Sprintf("Using default settings: %v", err))
	}

	a.Settings().SetTheme(NewViewerTheme(a.Settings().Theme(), cfg.Background))
	ui.init(cfg)

	ui.UI.MainWin = a.NewWindow("Gazer")
	ui.UI.MainWin.SetCloseIntercept(func() {
		ui.slideshowManager.Stop()
		log.Println("Closing settings database...")
		if err := store.Close(); err != nil {
			log.Printf("Error closing settings database: %v", err)
		}
		ui.UI.MainWin.Close()
	})
	ui.UI.MainWin.SetIcon(theme.FileImageIcon())
	ui.UI.MainWin.SetContent(ui.buildMainUI())
	ui.UI.MainWin.SetOnDropped(ui.handleDrop)
	ui.UI.MainWin.Resize(fyne.NewSize(1024, 768))
	ui.UI.MainWin.CenterOnScreen()
	ui.UI.MainWin.SetFullScreen(*fullScreenFlag || cfg.AutoBorderless)

	go ui.startup(flag.Args())
	go ui.animate()

	ui.UI.MainWin.ShowAndRun()
}
