package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
)

// A soundpack is a directory of JSON files plus the audio files they
// reference. Each JSON file holds an array of records of type
// "sound_effect", "sound_effect_preload" or "playlist". A bad record is
// rejected and logged without aborting the rest of the pack.
type packRecord struct {
	Type string `json:"type"`

	// sound_effect fields
	ID        string          `json:"id"`
	Variant   json.RawMessage `json:"variant"`
	Season    string          `json:"season"`
	IsIndoors *bool           `json:"is_indoors"`
	IsNight   *bool           `json:"is_night"`
	Volume    *int            `json:"volume"`
	Files     []string        `json:"files"`

	// sound_effect_preload fields
	Preload []preloadRecord `json:"preload"`

	// playlist fields
	Playlists []playlistRecord `json:"playlists"`
}

type preloadRecord struct {
	ID        string          `json:"id"`
	Variant   json.RawMessage `json:"variant"`
	Season    string          `json:"season"`
	IsIndoors *bool           `json:"is_indoors"`
	IsNight   *bool           `json:"is_night"`
}

type playlistRecord struct {
	ID      string `json:"id"`
	Shuffle bool   `json:"shuffle"`
	Files   []struct {
		File   string `json:"file"`
		Volume int    `json:"volume"`
	} `json:"files"`
}

// variantList decodes the optional "variant" field: absent means
// {"default"}, a string means one variant, an array lists several.
func variantList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return []string{"default"}, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("variant must be a string or array of strings")
	}
	return many, nil
}

func (e *soundEngine) applyRecord(rec *packRecord) error {
	switch rec.Type {
	case "sound_effect":
		return e.loadSoundEffect(rec)
	case "sound_effect_preload":
		return e.loadPreload(rec)
	case "playlist":
		for _, pl := range rec.Playlists {
			list := musicPlaylist{shuffle: pl.Shuffle}
			for _, f := range pl.Files {
				list.entries = append(list.entries, playlistEntry{file: f.File, volume: f.Volume})
			}
			e.playlists[pl.ID] = list
		}
		return nil
	default:
		logDebug("ignoring unknown soundpack record type %q", rec.Type)
		return nil
	}
}

func (e *soundEngine) loadSoundEffect(rec *packRecord) error {
	variants, err := variantList(rec.Variant)
	if err != nil {
		return fmt.Errorf("sound_effect %q: %w", rec.ID, err)
	}
	volume := 100
	if rec.Volume != nil {
		volume = *rec.Volume
	}
	for _, variant := range variants {
		key, err := newSfxKey(rec.ID, variant, rec.Season, rec.IsIndoors, rec.IsNight)
		if err != nil {
			return fmt.Errorf("sound_effect %q: %w", rec.ID, err)
		}
		for _, file := range rec.Files {
			e.effects.insert(key, soundEffect{volume: volume, resource: e.res.intern(file)})
		}
	}
	return nil
}

func (e *soundEngine) loadPreload(rec *packRecord) error {
	for _, pre := range rec.Preload {
		variants, err := variantList(pre.Variant)
		if err != nil {
			return fmt.Errorf("preload %q: %w", pre.ID, err)
		}
		for _, variant := range variants {
			key, err := newSfxKey(pre.ID, variant, pre.Season, pre.IsIndoors, pre.IsNight)
			if err != nil {
				return fmt.Errorf("preload %q: %w", pre.ID, err)
			}
			e.preload = append(e.preload, key)
		}
	}
	return nil
}

// loadSoundset ingests every JSON file in dir, materializes the preload
// set, then discards the interning map and preload queue; their only
// purpose is de-duplication during ingestion.
func (e *soundEngine) loadSoundset(dir string) error {
	start := time.Now()
	e.packDir = dir
	e.res.setBaseDir(dir)

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("soundpack %s has no data files", dir)
	}
	sort.Strings(files)
	for _, fn := range files {
		data, err := os.ReadFile(fn)
		if err != nil {
			logError("failed to read soundpack file %s: %v", fn, err)
			continue
		}
		var recs []packRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			logError("failed to load sounds from %s: %v", fn, err)
			continue
		}
		for i := range recs {
			if err := e.applyRecord(&recs[i]); err != nil {
				logError("%s: rejecting entry: %v", filepath.Base(fn), err)
			}
		}
	}

	e.preloadResources()
	count, bytes := e.res.stats()
	elapsed := durafmt.Parse(time.Since(start).Round(time.Millisecond)).LimitFirstN(2)
	logDebug("soundpack %s: %d chunks cached (%s) in %s", dir, count, humanize.Bytes(uint64(bytes)), elapsed)

	e.res.releaseInterning()
	e.preload = nil
	return nil
}

// preloadResources decodes every resource named by a preload key, bounded
// to one worker per CPU.
func (e *soundEngine) preloadResources() {
	if len(e.preload) == 0 {
		return
	}
	swg := sizedwaitgroup.New(runtime.NumCPU())
	seen := make(map[int]struct{})
	for _, key := range e.preload {
		for _, eff := range e.effects.findExact(key) {
			if _, ok := seen[eff.resource]; ok {
				continue
			}
			seen[eff.resource] = struct{}{}
			id := eff.resource
			swg.Add()
			go func() {
				defer swg.Done()
				e.res.materialize(id)
			}()
		}
	}
	swg.Wait()
}

// switchSoundpack quiesces all playback, clears every table, and loads the
// pack at dir. No voice may reference the old resource table afterwards.
func (e *soundEngine) switchSoundpack(dir string) error {
	e.stopAllVoices()
	e.stopMusic()
	e.effects.clear()
	e.res.clear()
	e.playlists = make(map[string]musicPlaylist)
	e.preload = nil
	return e.loadSoundset(dir)
}

var soundpackRoot = filepath.Join("data", "sound")

const defaultSoundpack = "basic"

// loadSoundsetFromSettings resolves the configured soundpack name to a
// directory, falling back to the default pack when it is unset or missing.
func loadSoundsetFromSettings() error {
	if snd == nil {
		return fmt.Errorf("audio disabled")
	}
	name := gs.Soundpack
	if name == "" {
		logError("soundpack not set in options or empty")
		name = defaultSoundpack
	}
	dir := filepath.Join(soundpackRoot, name)
	if _, err := os.Stat(dir); err != nil {
		logError("soundpack with name %q can't be found: %v", name, err)
		name = defaultSoundpack
		dir = filepath.Join(soundpackRoot, name)
	}
	logDebug("current soundpack is: %s", name)
	return snd.loadSoundset(dir)
}

func loadSoundset(dir string) error {
	if snd == nil {
		return fmt.Errorf("audio disabled")
	}
	return snd.loadSoundset(dir)
}

func switchSoundpack(dir string) error {
	if snd == nil {
		return fmt.Errorf("audio disabled")
	}
	return snd.switchSoundpack(dir)
}

// shutdownSound halts playback, releases all loaded sound data, and
// disables the audio subsystem.
func shutdownSound() {
	if snd == nil {
		return
	}
	snd.stopAllVoices()
	snd.stopMusic()
	close(snd.janitorStop)
	snd.effects.clear()
	snd.res.clear()
	snd.playlists = nil
	snd = nil
}
