// Package hotkey fires a callback on a global key combination, used for
// manual sampling passes.
package hotkey

import (
	"log"
	"strconv"
	"strings"

	gohook "github.com/robotn/gohook"
)

// Listen registers a global key combination such as "Ctrl+Alt+C" and invokes
// callback each time the full combination is pressed. The listener runs for
// the life of the process; combinations that cannot be mapped are logged and
// no listener is started.
func Listen(combo string, callback func()) {
	type key struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}

	var keys []key
	for _, name := range parseHotkey(combo) {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			log.Printf("hotkey: cannot map key %q, skipping", name)
			continue
		}
		keys = append(keys, key{name: name, rawcodes: rawcodes})
	}
	if len(keys) == 0 {
		log.Printf("hotkey: no usable keys in %q, listener not started", combo)
		return
	}

	log.Printf("hotkey: listening for %s", combo)

	matches := func(raw uint16, k *key) bool {
		for _, rc := range k.rawcodes {
			if rc == raw {
				return true
			}
		}
		return false
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("hotkey: listener panicked: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("hotkey: hook channel unavailable")
			return
		}

		// All key state lives in this goroutine.
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				all := true
				for i := range keys {
					if matches(ev.Rawcode, &keys[i]) {
						keys[i].pressed = true
					}
					all = all && keys[i].pressed
				}
				if all {
					for i := range keys {
						keys[i].pressed = false
					}
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				for i := range keys {
					if matches(ev.Rawcode, &keys[i]) {
						keys[i].pressed = false
					}
				}
			}
		}
	}()
}

// parseHotkey splits "Ctrl+Alt+Q" into normalized lowercase key names.
// Win, Cmd and Super are aliases for the same modifier.
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// specialKeys maps named keys to their Windows virtual key codes. Modifiers
// carry both the left and right variant.
var specialKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN
	"win":   {91, 92},
	"super": {91, 92},

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key codes.
// Letters, digits and function keys are computed from their VK ranges.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))

	if codes, ok := specialKeys[name]; ok {
		return codes
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 0x41}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 0x30}
		}
	}
	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(0x70 + n - 1)} // VK_F1..VK_F24
		}
	}

	log.Printf("hotkey: unknown key name %q", name)
	return nil
}
