// Package tray provides the host's system tray menu using getlantern/systray.
package tray

import (
	"github.com/getlantern/systray"
)

// MenuItem is one tray menu entry
type MenuItem struct {
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	title   string
	tooltip string
	items   []*MenuItem
	quitCh  chan struct{}
}

// New creates a tray with the given tooltip
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem appends a clickable menu entry. Must be called before Run.
func (t *Tray) AddMenuItem(title string, callback func()) {
	t.items = append(t.items, &MenuItem{Title: title, Callback: callback})
}

// AddSeparator appends a separator. Must be called before Run.
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil)
}

// Run starts the tray event loop. Blocks until Stop is called; on most
// platforms this must run on the main thread.
func (t *Tray) Run() {
	systray.Run(t.setup, func() { close(t.quitCh) })
}

// Stop quits the tray event loop
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) setup() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(trayIcon())

	for _, entry := range t.items {
		if entry == nil {
			systray.AddSeparator()
			continue
		}
		entry.item = systray.AddMenuItem(entry.Title, "")
		if entry.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(entry)
		}
	}
}

// trayIcon returns a minimal valid 16x16 32-bit ICO (transparent placeholder)
func trayIcon() []byte {
	icon := make([]byte, 1118)
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00,
		0x16, 0x00, 0x00, 0x00,
	})
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x20, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	})
	// Pixels and mask stay zero for full transparency
	return icon
}
