// Package uistate holds per-session interface flags that survive page
// navigation: the cart drawer and the mobile menu.
package uistate

import "sync"

// Flags is safe for concurrent use. At most one panel is open at a time.
type Flags struct {
	mu       sync.Mutex
	cartOpen bool
	menuOpen bool
}

type Snapshot struct {
	CartOpen bool `json:"cart_open"`
	MenuOpen bool `json:"menu_open"`
}

func (f *Flags) OpenCart() {
	f.mu.Lock()
	f.cartOpen, f.menuOpen = true, false
	f.mu.Unlock()
}

func (f *Flags) CloseCart() {
	f.mu.Lock()
	f.cartOpen = false
	f.mu.Unlock()
}

func (f *Flags) ToggleCart() {
	f.mu.Lock()
	f.cartOpen = !f.cartOpen
	if f.cartOpen {
		f.menuOpen = false
	}
	f.mu.Unlock()
}

func (f *Flags) OpenMenu() {
	f.mu.Lock()
	f.menuOpen, f.cartOpen = true, false
	f.mu.Unlock()
}

func (f *Flags) CloseMenu() {
	f.mu.Lock()
	f.menuOpen = false
	f.mu.Unlock()
}

func (f *Flags) ToggleMenu() {
	f.mu.Lock()
	f.menuOpen = !f.menuOpen
	if f.menuOpen {
		f.cartOpen = false
	}
	f.mu.Unlock()
}

func (f *Flags) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{CartOpen: f.cartOpen, MenuOpen: f.menuOpen}
}

// Apply runs a named action, as posted by the browser. Unknown actions
// report false.
func (f *Flags) Apply(action string) bool {
	fn, ok := map[string]func(){
		"cart.open":   f.OpenCart,
		"cart.close":  f.CloseCart,
		"cart.toggle": f.ToggleCart,
		"menu.open":   f.OpenMenu,
		"menu.close":  f.CloseMenu,
		"menu.toggle": f.ToggleMenu,
	}[action]
	if ok {
		fn()
	}
	return ok
}
