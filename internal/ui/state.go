// Package ui holds the per-visitor presentation toggles.
package ui

import (
	"errors"
	"fmt"
)

// Toggle names accepted by State.Toggle.
const (
	DarkMode         = "dark_mode"
	MobileMenuOpen   = "mobile_menu_open"
	ProfileModalOpen = "profile_modal_open"
)

// ErrUnknownToggle is returned for a toggle name State does not have.
var ErrUnknownToggle = errors.New("unknown toggle")

// State is an immutable set of presentation flags.
type State struct {
	DarkMode         bool `json:"dark_mode"`
	MobileMenuOpen   bool `json:"mobile_menu_open"`
	ProfileModalOpen bool `json:"profile_modal_open"`
}

// Toggle returns a copy of s with the named flag flipped.
func (s State) Toggle(name string) (State, error) {
	switch name {
	case DarkMode:
		s.DarkMode = !s.DarkMode
	case MobileMenuOpen:
		s.MobileMenuOpen = !s.MobileMenuOpen
	case ProfileModalOpen:
		s.ProfileModalOpen = !s.ProfileModalOpen
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownToggle, name)
	}
	return s, nil
}

// Values is the subset of a session that State persists into.
type Values interface {
	Get(key string) (any, bool)
	Set(key string, v any) error
}

const keyPrefix = "ui."

// Load reads the flags from v. Missing flags are false.
func Load(v Values) State {
	return State{
		DarkMode:         flag(v, DarkMode),
		MobileMenuOpen:   flag(v, MobileMenuOpen),
		ProfileModalOpen: flag(v, ProfileModalOpen),
	}
}

func flag(v Values, name string) bool {
	raw, ok := v.Get(keyPrefix + name)
	if !ok {
		return false
	}
	b, _ := raw.(bool)
	return b
}

// Save writes the flags that differ from the stored ones.
func Save(v Values, s State) error {
	cur := Load(v)
	for _, f := range []struct {
		name      string
		old, next bool
	}{
		{DarkMode, cur.DarkMode, s.DarkMode},
		{MobileMenuOpen, cur.MobileMenuOpen, s.MobileMenuOpen},
		{ProfileModalOpen, cur.ProfileModalOpen, s.ProfileModalOpen},
	} {
		if f.old == f.next {
			continue
		}
		if err := v.Set(keyPrefix+f.name, f.next); err != nil {
			return err
		}
	}
	return nil
}
