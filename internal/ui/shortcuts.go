// Package ui  Shortcuts for keyboard actions
package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

func (a *App) buildKeyboardShortcuts() {
	c := a.UI.MainWin.Canvas()

	// ctrl+q to quit application
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyQ, Modifier: a.UI.mainModKey},
		func(_ fyne.Shortcut) { a.app.Quit() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: a.UI.mainModKey},
		func(_ fyne.Shortcut) { a.showOpenPlaylistDialog() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: a.UI.mainModKey},
		func(_ fyne.Shortcut) { a.quickSavePlaylist() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: a.UI.mainModKey | fyne.KeyModifierShift},
		func(_ fyne.Shortcut) { a.showSavePlaylistDialog() })

	c.SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyRight, fyne.KeyDown, fyne.KeyPageDown:
			a.step(1)
		case fyne.KeyLeft, fyne.KeyUp, fyne.KeyPageUp:
			a.step(-1)
		case fyne.KeyHome:
			a.firstImage()
		case fyne.KeyEnd:
			a.lastImage()
		case fyne.KeyP:
			a.togglePlay()
		case fyne.KeySpace:
			a.engine.TriggerPulse()
		case fyne.KeyF:
			a.fitImage()
		case fyne.KeyInsert:
			a.reAddCurrent()
		case fyne.Key1, fyne.Key2, fyne.Key3, fyne.Key4:
			a.applyPreset(int(key.Name[0] - '1'))
		case fyne.KeyF11:
			a.UI.MainWin.SetFullScreen(!a.UI.MainWin.FullScreen())
		// close dialogs with esc key, otherwise leave playlist mode
		case fyne.KeyEscape:
			if len(c.Overlays().List()) > 0 {
				c.Overlays().Top().Hide()
				return
			}
			a.exitPlaylist()
		}
	})
}

func (a *App) showShortcuts() {
	shortcuts := []string{
		"Ctrl+Q",
		"Arrow Right / Down", "Arrow Left / Up",
		"Home", "End",
		"P", "Space", "F",
		"Insert or Middle Click",
		"1 - 4",
		"Ctrl+O", "Ctrl+S", "Ctrl+Shift+S",
		"F11", "Esc",
		"Mouse Wheel", "Drag",
	}
	descriptions := []string{
		"Quit Application",
		"Next Image", "Previous Image",
		"First Playlist Image", "Last Playlist Image",
		"Toggle Auto-play", "Trigger Pulse", "Fit to Window",
		"Add Current Image to Playlist Again",
		"Apply Effect Preset",
		"Open Playlist", "Save Playlist", "Save Playlist As",
		"Toggle Full Screen", "Close Dialog / Exit Playlist Mode",
		"Zoom", "Pan",
	}

	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(descriptions) + 1, 2 }, // +1 for header row
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			isHeader := id.Row == 0 // First row is header
			dataRowIndex := id.Row - 1

			if id.Col == 0 { // Description column
				label.SetText(ternary(isHeader, "Description", descriptions[dataRowIndex]))
			} else { // Shortcut column
				label.SetText(ternary(isHeader, "Shortcut", shortcuts[dataRowIndex]))
			}
			label.TextStyle.Bold = isHeader
		},
	)
	table.SetColumnWidth(0, 250)
	table.SetColumnWidth(1, 250)
	win.SetContent(table)
	win.Resize(fyne.NewSize(500, 500))
	win.Show()
}

// ternary returns trueVal when condition holds, otherwise falseVal.
func ternary(condition bool, trueVal, falseVal string) string {
	if condition {
		return trueVal
	}
	return falseVal
}
