// Package mainwindow provides the viewer's main window.
package mainwindow

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"cardscan/internal/app"
	"cardscan/internal/detect"
	"cardscan/internal/pipeline"
	"cardscan/internal/scan"
	"cardscan/internal/version"
	"cardscan/ui/canvas"
	"cardscan/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeyOrientation = "orientation"
	prefKeyUnblurred   = "unblurredDigits"
)

// playInterval is the delay between frames while playing.
const playInterval = 100 * time.Millisecond

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	view      *canvas.FrameView
	scanPanel *panels.ScanPanel
	statusBar *widget.Label
	playBtn   *widget.Button

	mu      sync.Mutex
	playing bool
	stop    chan struct{}
	watcher *app.FrameWatcher
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("Card Scanner")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.Resize(fyne.NewSize(1280, 720))

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.view = canvas.NewFrameView()
	mw.scanPanel = panels.NewScanPanel(mw.state)
	mw.statusBar = widget.NewLabel("Open a frame directory to start")

	split := container.NewHSplit(
		mw.scanPanel.Container(),
		container.NewBorder(mw.createToolbar(), nil, nil, nil, mw.view.Container()),
	)
	split.SetOffset(0.25)

	mw.SetContent(container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	))
}

// createToolbar creates the playback controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	stepBtn := widget.NewButton("Step", mw.onStep)
	mw.playBtn = widget.NewButton("Play", mw.onTogglePlay)
	resetBtn := widget.NewButton("Reset", mw.onReset)

	var names []string
	for _, o := range []detect.Orientation{detect.Portrait, detect.PortraitUpsideDown, detect.LandscapeLeft, detect.LandscapeRight} {
		names = append(names, o.String())
	}
	orientation := widget.NewSelect(names, func(s string) {
		if o, ok := detect.ParseOrientation(s); ok && o != mw.state.Config().Orientation {
			mw.app.Preferences().SetString(prefKeyOrientation, s)
			mw.state.SetOrientation(o)
		}
	})
	orientation.SetSelected(mw.state.Config().Orientation.String())

	follow := widget.NewCheck("Follow directory", mw.onFollow)

	return container.NewHBox(
		stepBtn,
		mw.playBtn,
		resetBtn,
		widget.NewSeparator(),
		widget.NewLabel("Orientation:"),
		orientation,
		follow,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Frames...", mw.onOpenFrames),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)
	scanMenu := fyne.NewMenu("Scan",
		fyne.NewMenuItem("Step", mw.onStep),
		fyne.NewMenuItem("Play / Pause", mw.onTogglePlay),
		fyne.NewMenuItem("Reset", mw.onReset),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, scanMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventFramesLoaded, func(data interface{}) {
		if dir, ok := data.(string); ok {
			_, total := mw.state.Position()
			mw.SetTitle("Card Scanner - " + filepath.Base(dir))
			mw.updateStatus(fmt.Sprintf("%d frames in %s", total, dir))
		}
		mw.view.Clear()
		mw.scanPanel.Clear()
	})

	mw.state.On(app.EventFramesAdded, func(data interface{}) {
		if total, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("%d frames", total))
		}
	})

	mw.state.On(app.EventFrameScanned, func(data interface{}) {
		st, ok := data.(pipeline.Step)
		if !ok {
			return
		}
		f, _, _ := mw.state.Last()
		if err := mw.view.Show(f, st, mw.unblurred()); err != nil {
			slog.Error("Failed to render frame", "error", err)
		}
		mw.scanPanel.Update(st)
		scanned, total := mw.state.Position()
		mw.updateStatus(fmt.Sprintf("Frame %d of %d: %s", scanned, total, filepath.Base(f.Path)))
	})

	mw.state.On(app.EventCardRead, func(data interface{}) {
		if r, ok := data.(scan.Result); ok {
			mw.pause()
			mw.updateStatus(fmt.Sprintf("Read %s %s", r.CardType, r))
		}
	})

	mw.state.On(app.EventScanReset, func(interface{}) {
		mw.view.Clear()
		mw.scanPanel.Clear()
		mw.updateStatus("Scan reset")
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// unblurred returns how many trailing digits stay readable in the card view.
func (mw *MainWindow) unblurred() int {
	return mw.app.Preferences().IntWithFallback(prefKeyUnblurred, 4)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// OpenDir loads a frame directory and remembers it.
func (mw *MainWindow) OpenDir(dir string) error {
	mw.pause()
	mw.stopWatching()
	if err := mw.state.OpenDir(dir); err != nil {
		return err
	}
	mw.app.Preferences().SetString(prefKeyLastDir, dir)
	return nil
}

func (mw *MainWindow) onOpenFrames() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		if err := mw.OpenDir(uri.Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onStep() {
	mw.pause()
	mw.step()
}

// step scans one frame and reports whether there are more.
func (mw *MainWindow) step() bool {
	_, ok, err := mw.state.ScanNext()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return false
	}
	if !ok {
		mw.updateStatus("End of frames")
	}
	return ok
}

func (mw *MainWindow) onTogglePlay() {
	mw.mu.Lock()
	if mw.playing {
		mw.mu.Unlock()
		mw.pause()
		return
	}
	mw.playing = true
	mw.stop = make(chan struct{})
	stop := mw.stop
	mw.mu.Unlock()

	mw.playBtn.SetText("Pause")
	go func() {
		ticker := time.NewTicker(playInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !mw.step() {
					mw.pause()
					return
				}
			}
		}
	}()
}

// pause stops playback if it is running.
func (mw *MainWindow) pause() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if !mw.playing {
		return
	}
	mw.playing = false
	close(mw.stop)
	mw.playBtn.SetText("Play")
}

func (mw *MainWindow) onReset() {
	mw.pause()
	mw.state.Reset()
}

func (mw *MainWindow) onFollow(on bool) {
	if !on {
		mw.stopWatching()
		return
	}
	dir := mw.state.Dir()
	if dir == "" {
		mw.updateStatus("Open a frame directory first")
		return
	}
	w, err := app.NewFrameWatcher(dir, time.Second)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	w.OnNewFrames(mw.state.AddFrames)
	w.Start()

	mw.mu.Lock()
	mw.watcher = w
	mw.mu.Unlock()
	mw.updateStatus("Following " + dir)
}

func (mw *MainWindow) stopWatching() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.watcher != nil {
		mw.watcher.Stop()
		mw.watcher = nil
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About", version.String(), mw.Window)
}
