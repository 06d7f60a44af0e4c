package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

type playlistEntry struct {
	file   string
	volume int
}

// musicPlaylist is an ordered list of track files relative to the
// soundpack location, optionally shuffled once per playlist start.
type musicPlaylist struct {
	entries []playlistEntry
	shuffle bool
}

// musicState is the single streaming music slot. Only one playlist plays
// at a time; starting a new one stops the current one.
type musicState struct {
	mu          sync.Mutex
	current     string
	order       []int
	absoluteAt  int
	trackVolume int
	player      mixerPlayer
	file        io.Closer
	resume      string
}

// playMusic starts the given playlist from its first track. A playlist
// that is already playing is not interrupted.
func (e *soundEngine) playMusic(id string) {
	m := &e.music
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.current {
		return
	}
	e.stopMusicLocked()

	list, ok := e.playlists[id]
	if !ok || len(list.entries) == 0 {
		return
	}

	m.order = make([]int, len(list.entries))
	for i := range m.order {
		m.order[i] = i
	}
	if list.shuffle {
		// Audio-only nondeterminism, no game logic depends on it.
		rand.Shuffle(len(m.order), func(i, j int) {
			m.order[i], m.order[j] = m.order[j], m.order[i]
		})
	}

	m.current = id
	m.absoluteAt = 0
	next := list.entries[m.order[0]]
	m.trackVolume = next.volume
	e.playMusicFileLocked(next.file, next.volume)
}

func (e *soundEngine) stopMusic() {
	e.music.mu.Lock()
	e.stopMusicLocked()
	e.music.mu.Unlock()
}

func (e *soundEngine) stopMusicLocked() {
	m := &e.music
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	if m.file != nil {
		m.file.Close()
		m.file = nil
	}
	m.order = nil
	m.current = ""
	m.absoluteAt = 0
}

// musicTick is driven by the janitor: when the current track has drained,
// advance to the next one.
func (e *soundEngine) musicTick() {
	m := &e.music
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player != nil && !m.player.IsPlaying() {
		e.musicFinishedLocked()
	}
}

// musicFinishedLocked advances the playlist cursor, wrapping to the first
// track past the end, and starts the next file.
func (e *soundEngine) musicFinishedLocked() {
	m := &e.music
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	if m.file != nil {
		m.file.Close()
		m.file = nil
	}

	list, ok := e.playlists[m.current]
	if !ok || len(list.entries) == 0 {
		return
	}
	m.absoluteAt++
	if m.absoluteAt >= len(list.entries) {
		m.absoluteAt = 0
	}
	next := list.entries[m.order[m.absoluteAt]]
	m.trackVolume = next.volume
	e.playMusicFileLocked(next.file, next.volume)
}

func (e *soundEngine) playMusicFileLocked(file string, volume int) {
	if !checkSound(volume) {
		return
	}
	m := &e.music
	path := filepath.Join(e.packDir, file)
	stream, closer, err := openMusicStream(path, e.rate)
	if err != nil {
		logError("failed to load music file %s: %v", path, err)
		return
	}
	player, err := e.backend.NewPlayer(stream)
	if err != nil {
		closer.Close()
		logError("starting music file %s failed: %v", path, err)
		return
	}
	m.player = player
	m.file = closer
	player.SetVolume(musicVolume(volume))
	player.Play()
}

// updateMusicVolume re-applies the music category volume to the playing
// track and handles the sound-enabled toggle: music stops when sound is
// disabled and the interrupted playlist resumes when it is re-enabled.
func (e *soundEngine) updateMusicVolume() {
	m := &e.music
	m.mu.Lock()
	if m.player != nil {
		m.player.SetVolume(musicVolume(m.trackVolume))
	}
	resume := ""
	if !gs.SoundEnabled {
		if m.current != "" {
			m.resume = m.current
		}
		e.stopMusicLocked()
	} else if m.current == "" && m.resume != "" {
		resume = m.resume
		m.resume = ""
	}
	m.mu.Unlock()

	if resume != "" {
		e.playMusic(resume)
	}
}

func musicVolume(trackVolume int) float64 {
	v := float64(trackVolume*gs.MusicVolume) / (100 * 100)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// openMusicStream opens a track for streaming playback. Unlike sound
// effects, music is not cached; the decoder pulls from the file as the
// backend drains the stream.
func openMusicStream(path string, rate int) (io.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	var stream io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(rate, f)
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(rate, f)
	default:
		err = fmt.Errorf("unsupported music format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return stream, f, nil
}

// playMusic and stopMusic are the application-facing wrappers; they no-op
// when audio is disabled.
func playMusic(id string) {
	if snd != nil {
		snd.playMusic(id)
	}
}

func stopMusic() {
	if snd != nil {
		snd.stopMusic()
	}
}

func updateMusicVolume() {
	if snd != nil {
		snd.updateMusicVolume()
	}
}
