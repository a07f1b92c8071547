// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
)

// namedKeys maps the key names the plan generator produces to the DOM key
// values chromedp's keyboard layer understands.
var namedKeys = map[string]string{
	"enter":     kb.Enter,
	"return":    kb.Enter,
	"tab":       kb.Tab,
	"escape":    kb.Escape,
	"esc":       kb.Escape,
	"backspace": kb.Backspace,
	"delete":    kb.Delete,
	"space":     " ",
	"up":        kb.ArrowUp,
	"down":      kb.ArrowDown,
	"left":      kb.ArrowLeft,
	"right":     kb.ArrowRight,
	"home":      kb.Home,
	"end":       kb.End,
	"pageup":    kb.PageUp,
	"pagedown":  kb.PageDown,
	"f1":        kb.F1,
	"f2":        kb.F2,
	"f3":        kb.F3,
	"f4":        kb.F4,
	"f5":        kb.F5,
	"f6":        kb.F6,
	"f7":        kb.F7,
	"f8":        kb.F8,
	"f9":        kb.F9,
	"f10":       kb.F10,
	"f11":       kb.F11,
	"f12":       kb.F12,
}

// resolveKey translates a key name into the string to feed chromedp.KeyEvent.
// Single characters pass through as-is.
func resolveKey(name string) (string, error) {
	if mapped, ok := namedKeys[strings.ToLower(name)]; ok {
		return mapped, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		return name, nil
	}
	return "", fmt.Errorf("unsupported key name %q", name)
}

// resolveModifiers translates modifier names into the DevTools bitmask.
func resolveModifiers(names []string) (input.Modifier, error) {
	var mods input.Modifier
	for _, name := range names {
		switch strings.ToLower(name) {
		case "ctrl", "control":
			mods |= input.ModifierCtrl
		case "alt":
			mods |= input.ModifierAlt
		case "shift":
			mods |= input.ModifierShift
		case "meta", "cmd", "command":
			mods |= input.ModifierMeta
		default:
			return 0, fmt.Errorf("unsupported modifier %q", name)
		}
	}
	return mods, nil
}
