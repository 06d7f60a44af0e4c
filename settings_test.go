package main

import (
	"os"
	"path/filepath"
	"testing"
)

func withSettingsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	oldPath, oldGS, oldLoaded := settingsPath, gs, settingsLoaded
	settingsPath = path
	t.Cleanup(func() {
		settingsPath, gs, settingsLoaded = oldPath, oldGS, oldLoaded
	})
	return path
}

func TestSettingsRoundTrip(t *testing.T) {
	withSettingsFile(t)

	gs = gsdef
	gs.SoundEffectVolume = 40
	gs.MusicVolume = 10
	gs.Soundpack = "orchestral"
	saveSettings()

	gs = gsdef
	settingsLoaded = false
	loadSettings()
	if !settingsLoaded {
		t.Fatalf("settings not marked loaded")
	}
	if gs.SoundEffectVolume != 40 || gs.MusicVolume != 10 || gs.Soundpack != "orchestral" {
		t.Errorf("loaded settings = %+v", gs)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	withSettingsFile(t)

	gs.SoundEffectVolume = 5
	settingsLoaded = false
	loadSettings()
	if gs != gsdef {
		t.Errorf("missing file did not restore defaults: %+v", gs)
	}
	if settingsLoaded {
		t.Errorf("missing file marked as loaded")
	}
}

func TestLoadSettingsCorruptFile(t *testing.T) {
	path := withSettingsFile(t)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	gs.MusicVolume = 5
	loadSettings()
	if gs != gsdef {
		t.Errorf("corrupt file did not restore defaults: %+v", gs)
	}
}

func TestLoadSettingsVersionMismatch(t *testing.T) {
	path := withSettingsFile(t)
	if err := os.WriteFile(path, []byte(`{"Version": 99, "MusicVolume": 5}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loadSettings()
	if gs != gsdef {
		t.Errorf("version mismatch did not restore defaults: %+v", gs)
	}
}
