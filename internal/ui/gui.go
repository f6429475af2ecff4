package ui

import (
	"fmt"
	"path/filepath"
	"runtime"

	"gazer/internal/settings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

func (a *App) buildToolbar() *widget.Toolbar {
	a.UI.pauseAction = widget.NewToolbarAction(theme.MediaPlayIcon(), a.togglePlay)
	a.UI.toolBar = widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.showOpenImageDialog),
		widget.NewToolbarAction(theme.ListIcon(), a.showOpenPlaylistDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), a.quickSavePlaylist),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { a.step(-1) }),
		a.UI.pauseAction,
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() { a.step(1) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomFitIcon(), a.fitImage),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), a.showEffectsDialog),
		widget.NewToolbarAction(theme.CancelIcon(), a.exitPlaylist),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.SettingsIcon(), a.showSettingsDialog),
		widget.NewToolbarAction(theme.HelpIcon(), a.showShortcuts),
	)
	return a.UI.toolBar
}

func (a *App) buildStatusBar() fyne.CanvasObject {
	a.UI.statusPathLabel = widget.NewLabel("Ready")
	a.UI.statusPathLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.positionLabel = widget.NewLabel("")
	a.UI.statusLogLabel = widget.NewLabel("")
	a.UI.statusLogLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.statusLogUpBtn = widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() {
		a.logUIManager.ShowPreviousLogMessage()
	})
	a.UI.statusLogDownBtn = widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() {
		a.logUIManager.ShowNextLogMessage()
	})
	a.logUIManager = NewLogUIManager(a.UI.statusLogLabel, a.UI.statusLogUpBtn, a.UI.statusLogDownBtn, DefaultMaxLogMessages)
	a.logUIManager.UpdateLogDisplay()

	return container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, a.UI.positionLabel, a.UI.statusPathLabel),
		container.NewBorder(nil, nil, container.NewHBox(a.UI.statusLogUpBtn, a.UI.statusLogDownBtn), nil, a.UI.statusLogLabel),
	)
}

func (a *App) buildMainMenu() *fyne.MainMenu {
	recent := fyne.NewMenuItem("Open Recent", nil)
	paths, err := a.Service.RecentPlaylists()
	if err != nil {
		a.addLogMessage(fmt.Sprintf("Could not read recent playlists: %v", err))
	}
	if len(paths) == 0 {
		recent.Disabled = true
	} else {
		items := make([]*fyne.MenuItem, 0, len(paths)+2)
		for _, p := range paths {
			p := p
			items = append(items, fyne.NewMenuItem(filepath.Base(p), func() { a.loadPlaylist(p) }))
		}
		items = append(items, fyne.NewMenuItemSeparator(), fyne.NewMenuItem("Clear Missing", a.pruneRecent))
		recent.ChildMenu = fyne.NewMenu("", items...)
	}

	applyItems := make([]*fyne.MenuItem, 0, settings.PresetSlots)
	saveItems := make([]*fyne.MenuItem, 0, settings.PresetSlots)
	for slot := 0; slot < settings.PresetSlots; slot++ {
		slot := slot
		applyItems = append(applyItems, fyne.NewMenuItem(fmt.Sprintf("Apply Preset %d", slot+1), func() { a.applyPreset(slot) }))
		saveItems = append(saveItems, fyne.NewMenuItem(fmt.Sprintf("Save Effects as Preset %d", slot+1), func() { a.savePreset(slot) }))
	}
	presets := fyne.NewMenu("Presets", append(append(applyItems, fyne.NewMenuItemSeparator()), saveItems...)...)

	return fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Open Image...", a.showOpenImageDialog),
			fyne.NewMenuItem("Open Playlist...", a.showOpenPlaylistDialog),
			recent,
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Save Playlist", a.quickSavePlaylist),
			fyne.NewMenuItem("Save Playlist As...", a.showSavePlaylistDialog),
		),
		fyne.NewMenu("View",
			fyne.NewMenuItem("Next Image", func() { a.step(1) }),
			fyne.NewMenuItem("Previous Image", func() { a.step(-1) }),
			fyne.NewMenuItem("Fit to Window", a.fitImage),
			fyne.NewMenuItem("Toggle Auto-play", a.togglePlay),
			fyne.NewMenuItem("Pulse", a.engine.TriggerPulse),
			fyne.NewMenuItem("Re-add Current Image", a.reAddCurrent),
			fyne.NewMenuItem("Exit Playlist Mode", a.exitPlaylist),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Effects...", a.showEffectsDialog),
			fyne.NewMenuItem("Settings...", a.showSettingsDialog),
		),
		presets,
		fyne.NewMenu("Help",
			fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
			fyne.NewMenuItem("About", func() { NewAbout(a.UI.MainWin, "About Gazer").Show() }),
		),
	)
}

func (a *App) pruneRecent() {
	paths, err := a.Service.RecentPlaylists()
	if err != nil {
		return
	}
	for _, p := range paths {
		if !fileExists(p) {
			if err := a.Service.ForgetRecent(p); err != nil {
				a.addLogMessage(fmt.Sprintf("Could not update recent playlists: %v", err))
				return
			}
		}
	}
	a.UI.MainWin.SetMainMenu(a.buildMainMenu())
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.MainWin.SetMaster()
	// set main mod key to super on darwin hosts, else set it to ctrl
	if runtime.GOOS == "darwin" {
		a.UI.mainModKey = fyne.KeyModifierSuper
	} else {
		a.UI.mainModKey = fyne.KeyModifierControl
	}
	toolbar := a.buildToolbar()
	status := a.buildStatusBar()
	a.UI.infoText = widget.NewRichTextFromMarkdown("# Info\n---\n")
	a.UI.infoText.Wrapping = fyne.TextWrapWord

	a.UI.MainWin.SetMainMenu(a.buildMainMenu())
	a.buildKeyboardShortcuts()

	a.UI.split = container.NewHSplit(
		a.zoomPanArea,
		container.NewVScroll(a.UI.infoText),
	)
	a.UI.split.SetOffset(0.85)
	return container.NewBorder(
		toolbar, // Top
		status,  // Bottom
		nil,
		nil,
		a.UI.split,
	)
}
