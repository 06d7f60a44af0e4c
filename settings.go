package main

import (
	"encoding/json"
	"os"
)

const settingsVersion = 1

// settings holds the user-facing audio options. Volumes are 0-100 to match
// the soundpack data; the engine normalizes to the backend's 0..1 range.
type settings struct {
	Version int

	SoundEnabled      bool
	SoundEffectVolume int
	AmbientVolume     int
	MusicVolume       int
	Soundpack         string
}

var gsdef = settings{
	Version: settingsVersion,

	SoundEnabled:      true,
	SoundEffectVolume: 100,
	AmbientVolume:     100,
	MusicVolume:       80,
	Soundpack:         "basic",
}

var gs = gsdef

// settingsPath is a variable so tests can redirect persistence.
var settingsPath = "settings.json"

// settingsLoaded reports whether settings were successfully loaded from disk.
var settingsLoaded bool

func loadSettings() {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		gs = gsdef
		return
	}
	loaded := gsdef
	if err := json.Unmarshal(data, &loaded); err != nil {
		logWarn("settings file unreadable, using defaults: %v", err)
		gs = gsdef
		return
	}
	if loaded.Version != settingsVersion {
		logWarn("settings version %d, expected %d; using defaults", loaded.Version, settingsVersion)
		gs = gsdef
		return
	}
	gs = loaded
	settingsLoaded = true
}

func saveSettings() {
	data, err := json.MarshalIndent(&gs, "", "  ")
	if err != nil {
		logError("marshal settings: %v", err)
		return
	}
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		logError("write settings: %v", err)
	}
}
