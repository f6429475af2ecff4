package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gazer/internal/playlist"
	"gazer/internal/playlistfile"
	"gazer/internal/settings"
	"gazer/internal/viewstate"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// pauseFor pauses auto-play while a dialog is open and returns the function
// that resumes it.
func (a *App) pauseFor() func() {
	a.slideshowManager.Pause(true)
	return func() {
		a.slideshowManager.ResumeAfterOperation()
		a.updateStatusBar()
	}
}

// startDir returns the folder dialogs open in: the displayed image's folder,
// if there is one.
func (a *App) startDir() fyne.ListableURI {
	dir := ""
	if p := a.engine.PlaylistPath(); p != "" {
		dir = filepath.Dir(p)
	} else if p := a.engine.CurrentPath(); p != "" {
		dir = filepath.Dir(p)
	}
	if dir == "" {
		return nil
	}
	l, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return l
}

func (a *App) showOpenImageDialog() {
	resume := a.pauseFor()
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		defer resume()
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		a.openImage(path)
	}, a.UI.MainWin)
	d.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if dir := a.startDir(); dir != nil {
		d.SetLocation(dir)
	}
	d.Show()
}

func (a *App) showOpenPlaylistDialog() {
	resume := a.pauseFor()
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		defer resume()
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		a.loadPlaylist(path)
	}, a.UI.MainWin)
	d.SetFilter(storage.NewExtensionFileFilter([]string{playlistfile.Extension}))
	if dir := a.startDir(); dir != nil {
		d.SetLocation(dir)
	}
	d.Show()
}

// quickSavePlaylist saves to the file the playlist came from, asking for a
// name the first time.
func (a *App) quickSavePlaylist() {
	if p := a.engine.PlaylistPath(); p != "" {
		a.savePlaylist(p)
		return
	}
	a.showSavePlaylistDialog()
}

func (a *App) showSavePlaylistDialog() {
	if a.engine.CurrentPath() == "" {
		dialog.ShowInformation("Save Playlist", "There is nothing to save yet.", a.UI.MainWin)
		return
	}
	resume := a.pauseFor()
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		defer resume()
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		if w == nil {
			return
		}
		path := w.URI().Path()
		// The playlist is written atomically by path; the dialog's handle is not used.
		w.Close()
		a.savePlaylist(path)
	}, a.UI.MainWin)
	d.SetFilter(storage.NewExtensionFileFilter([]string{playlistfile.Extension}))
	name := "playlist" + playlistfile.Extension
	if p := a.engine.PlaylistPath(); p != "" {
		name = filepath.Base(p)
	}
	d.SetFileName(name)
	if dir := a.startDir(); dir != nil {
		d.SetLocation(dir)
	}
	d.Show()
}

// floatEntry returns an entry validated as a number in [lo, hi].
func floatEntry(v, lo, hi float64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(v, 'f', -1, 64))
	e.Validator = func(s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		if f < lo || f > hi {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	}
	return e
}

func entryValue(e *widget.Entry, fallback float64) float64 {
	f, err := strconv.ParseFloat(e.Text, 64)
	if err != nil {
		return fallback
	}
	return f
}

// showEffectsDialog edits the shake and pulse parameters of the displayed
// image, optionally making them the default for newly opened images.
func (a *App) showEffectsDialog() {
	if a.engine.CurrentPath() == "" {
		return
	}
	fx := a.engine.Current().Effects

	shake := widget.NewCheck("Enabled", nil)
	shake.SetChecked(fx.EnableShake)
	shakeAmount := floatEntry(fx.ShakeAmount, 0, 500)
	shakeFreq := floatEntry(fx.ShakeFrequency, 0, 50)

	pulse := widget.NewCheck("Enabled", nil)
	pulse.SetChecked(fx.EnablePulse)
	pulseInterval := floatEntry(fx.PulseInterval, 0.05, 60)
	pulseRandomness := floatEntry(fx.PulseRandomness, 0, 100)
	pulseDamping := floatEntry(fx.PulseDamping, 0.1, 100)
	pulseX := floatEntry(fx.PulsePowerX, 0, 2000)
	pulseY := floatEntry(fx.PulsePowerY, 0, 2000)

	asDefault := widget.NewCheck("Use for newly opened images", nil)

	items := []*widget.FormItem{
		widget.NewFormItem("Shake", shake),
		widget.NewFormItem("Shake amount", shakeAmount),
		widget.NewFormItem("Shake frequency", shakeFreq),
		widget.NewFormItem("Pulse", pulse),
		widget.NewFormItem("Pulse interval (s)", pulseInterval),
		widget.NewFormItem("Pulse randomness (%)", pulseRandomness),
		widget.NewFormItem("Pulse damping", pulseDamping),
		widget.NewFormItem("Pulse power X", pulseX),
		widget.NewFormItem("Pulse power Y", pulseY),
		widget.NewFormItem("", asDefault),
	}

	resume := a.pauseFor()
	dialog.ShowForm("Effects", "Apply", "Cancel", items, func(confirm bool) {
		defer resume()
		if !confirm {
			return
		}
		cfg := viewstate.EffectsConfig{
			EnableShake:     shake.Checked,
			ShakeAmount:     entryValue(shakeAmount, fx.ShakeAmount),
			ShakeFrequency:  entryValue(shakeFreq, fx.ShakeFrequency),
			EnablePulse:     pulse.Checked,
			PulseInterval:   entryValue(pulseInterval, fx.PulseInterval),
			PulseRandomness: entryValue(pulseRandomness, fx.PulseRandomness),
			PulseDamping:    entryValue(pulseDamping, fx.PulseDamping),
			PulsePowerX:     entryValue(pulseX, fx.PulsePowerX),
			PulsePowerY:     entryValue(pulseY, fx.PulsePowerY),
		}
		a.engine.SetEffects(cfg)
		if asDefault.Checked {
			a.settings.Effects = cfg
			a.persistSettings()
		}
		a.refreshView()
	}, a.UI.MainWin)
}

// showSettingsDialog edits playback and viewer preferences. Playback
// changes apply to the running playlist as well.
func (a *App) showSettingsDialog() {
	cfg := a.settings
	pb := a.engine.Playback()

	autoPlay := widget.NewCheck("Enabled", nil)
	autoPlay.SetChecked(pb.AutoPlayEnabled)
	interval := floatEntry(pb.AutoPlayInterval, 0.1, 3600)
	randomness := widget.NewSlider(0, 100)
	randomness.Step = 1
	randomness.SetValue(pb.AutoPlayRandomness)
	random := widget.NewCheck("Random order", nil)
	random.SetChecked(pb.RandomPlayback)
	autoSize := widget.NewCheck("Always fit images to the window", nil)
	autoSize.SetChecked(pb.AutoSizeWindow)
	absolute := widget.NewCheck("Store absolute paths only", nil)
	absolute.SetChecked(cfg.UseAbsolutePaths)
	notifications := widget.NewCheck("Desktop notifications", nil)
	notifications.SetChecked(cfg.ShowNotifications)
	borderless := widget.NewCheck("Start full screen", nil)
	borderless.SetChecked(cfg.AutoBorderless)

	items := []*widget.FormItem{
		widget.NewFormItem("Auto-play", autoPlay),
		widget.NewFormItem("Interval (s)", interval),
		widget.NewFormItem("Interval jitter (%)", randomness),
		widget.NewFormItem("", random),
		widget.NewFormItem("", autoSize),
		widget.NewFormItem("Playlists", absolute),
		widget.NewFormItem("", notifications),
		widget.NewFormItem("", borderless),
	}

	resume := a.pauseFor()
	dialog.ShowForm("Settings", "Save", "Cancel", items, func(confirm bool) {
		defer resume()
		if !confirm {
			return
		}
		next := settings.Playback{
			AutoPlayEnabled:    autoPlay.Checked,
			AutoPlayInterval:   entryValue(interval, pb.AutoPlayInterval),
			AutoPlayRandomness: randomness.Value,
			RandomPlayback:     random.Checked,
			AutoSizeWindow:     autoSize.Checked,
		}.Normalize()
		a.engine.SetPlayback(next)
		a.settings.Playback = next
		a.settings.UseAbsolutePaths = absolute.Checked
		a.settings.ShowNotifications = notifications.Checked
		a.settings.AutoBorderless = borderless.Checked
		a.persistSettings()
		if next.AutoSizeWindow && a.engine.Mode() == playlist.Playlist {
			a.fitImage()
		}
		a.refreshView()
	}, a.UI.MainWin)
}

func (a *App) persistSettings() {
	if err := a.Service.SaveSettings(a.settings); err != nil {
		a.addLogMessage(fmt.Sprintf("Could not save settings: %v", err))
	}
}
