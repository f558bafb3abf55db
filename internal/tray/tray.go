// Package tray provides the system tray menu for zonebeat.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	onPack     func(name string)
	enabled    bool
	packs      []string
	pack       string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastSound *systray.MenuItem
	menuPacks     map[string]*systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnPack sets the callback function to be called when a sound pack is picked.
func (t *Tray) OnPack(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPack = fn
}

// SetPacks sets the sound packs offered in the menu and the selected one.
// It must be called before Run.
func (t *Tray) SetPacks(names []string, selected string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.packs = append([]string(nil), names...)
	t.pack = selected
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	// Set the tray title and tooltip
	systray.SetTitle("zonebeat")
	systray.SetTooltip("zonebeat body-tracked sound zones")

	t.mu.Lock()
	title := "● Enabled"
	if !t.enabled {
		title = "○ Disabled"
	}
	t.menuToggle = systray.AddMenuItem(title, "Toggle sound triggering")
	systray.AddSeparator()

	t.menuLastSound = systray.AddMenuItem("Last: none", "Last played sound")
	t.menuLastSound.Disable()

	if len(t.packs) > 0 {
		packsMenu := systray.AddMenuItem("Sound Pack", "Preferred sound pack")
		t.menuPacks = make(map[string]*systray.MenuItem, len(t.packs))
		for _, name := range t.packs {
			item := packsMenu.AddSubMenuItem(name, "Prefer sounds from "+name)
			if name == t.pack {
				item.Check()
			}
			t.menuPacks[name] = item
			go t.watchPack(name, item)
		}
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit zonebeat")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
// It performs cleanup tasks.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	// Update menu item text based on new state
	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) watchPack(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.handlePack(name)
	}
}

// handlePack marks name as the selected pack.
func (t *Tray) handlePack(name string) {
	t.mu.Lock()
	t.pack = name
	for n, item := range t.menuPacks {
		if n == name {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	callback := t.onPack
	t.mu.Unlock()

	if callback != nil {
		callback(name)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastSound updates the last played sound in the menu.
func (t *Tray) SetLastSound(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastSound != nil {
		if name == "" {
			t.menuLastSound.SetTitle("Last: none")
		} else {
			t.menuLastSound.SetTitle("Last: " + name)
		}
	}
}

// SetEnabled sets the enabled state without calling the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle == nil {
		return
	}
	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}
}

// Pack returns the selected sound pack.
func (t *Tray) Pack() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pack
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
