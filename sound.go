package main

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Channel selectors. Reserved channels host long-lived ambient loops and
// hold at most one voice each; channelAny picks a free dynamic channel.
const channelAny = -1

const (
	channelOutdoorsEnv = iota
	channelIndoorsEnv
	channelUndergroundEnv
	channelWeatherEnv
	channelDangerTheme
	reservedChannelCount
)

const maxChannels = 128

// soundEngine owns the audio subsystem: resolver, resource table,
// playlists, voice slots, and the backend adapter. It is created by
// initSound and torn down by shutdownSound, which makes soundpack-switch
// quiescing and shutdown ordering explicit.
type soundEngine struct {
	backend mixerBackend
	rate    int

	mu     sync.Mutex
	voices map[int]*voice

	effects   *sfxMap
	res       *resourceTable
	playlists map[string]musicPlaylist
	preload   []sfxKey
	packDir   string

	music musicState

	slowed atomic.Bool

	janitorStop chan struct{}
}

// snd is the process-wide engine handle. Nil means audio is disabled and
// every play request silently no-ops.
var snd *soundEngine

// initSound attempts to initialize the audio device. The application must
// be able to run with audio fully disabled when this fails.
func initSound() error {
	if snd != nil {
		return nil
	}
	backend, err := newEbitenBackend(sampleRate)
	if err != nil {
		return err
	}
	snd = newSoundEngine(backend)
	return nil
}

func newSoundEngine(backend mixerBackend) *soundEngine {
	e := &soundEngine{
		backend:     backend,
		rate:        backend.SampleRate(),
		voices:      make(map[int]*voice),
		effects:     newSfxMap(),
		res:         newResourceTable(backend.SampleRate()),
		playlists:   make(map[string]musicPlaylist),
		janitorStop: make(chan struct{}),
	}
	go e.janitor()
	return e
}

// janitor periodically reaps voices whose channels have fully stopped and
// advances the playlist when the current track ends. It stands in for the
// backend-driven completion callbacks.
func (e *soundEngine) janitor() {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-e.janitorStop:
			return
		case <-t.C:
			e.reapFinished()
			e.musicTick()
		}
	}
}

// reapFinished runs completion teardown for every voice whose stream ended
// or whose channel the backend stopped.
func (e *soundEngine) reapFinished() {
	e.mu.Lock()
	stopped := make([]*voice, 0, len(e.voices))
	for _, v := range e.voices {
		if v.finished() || (voiceState(v.state.Load()) == voicePlaying && !v.player.IsPlaying()) {
			stopped = append(stopped, v)
		}
	}
	e.mu.Unlock()
	for _, v := range stopped {
		e.finishVoice(v)
	}
}

// finishVoice is the completion callback: it tears the voice down exactly
// once, guarded against a forced halt racing the natural end.
func (e *soundEngine) finishVoice(v *voice) {
	v.doneOnce.Do(func() {
		v.requestHalt()
		if v.player != nil {
			v.player.Close()
		}
		v.state.Store(int32(voiceFinished))
		e.mu.Lock()
		if e.voices[v.channel] == v {
			delete(e.voices, v.channel)
		}
		e.mu.Unlock()
		if v.ownsChunk {
			v.chunk.release()
		}
	})
}

// startVoice registers a voice with the backend. loops of 0 plays once;
// -1 loops until externally halted. vol is the final normalized 0..1
// player volume. On any failure an exclusively-owned chunk is released
// immediately and false is returned; registration failure never panics.
func (e *soundEngine) startVoice(ch int, chunk *pcmChunk, loops int, vol float64, ownsChunk bool, angle *float64, fadeIn time.Duration) bool {
	if loops < 0 {
		loops = unboundedLoopBudget
	}

	v := &voice{
		engine:    e,
		chunk:     chunk,
		ownsChunk: ownsChunk,
		loops:     loops,
		leftGain:  1,
		rightGain: 1,
	}
	if angle != nil {
		v.leftGain, v.rightGain = panGains(*angle)
	}
	if fadeIn > 0 {
		v.fadeFrames = int(fadeIn.Seconds() * float64(e.rate))
	}

	e.mu.Lock()
	slot := ch
	if ch == channelAny {
		slot = -1
		for c := reservedChannelCount; c < maxChannels; c++ {
			if _, busy := e.voices[c]; !busy {
				slot = c
				break
			}
		}
	} else if old, busy := e.voices[slot]; busy {
		if old.finished() {
			// Drained but not yet reaped; run its teardown now instead
			// of holding the slot until the janitor's next tick.
			e.mu.Unlock()
			e.finishVoice(old)
			e.mu.Lock()
			if _, busy := e.voices[slot]; busy {
				slot = -1
			}
		} else {
			slot = -1
		}
	}
	if slot < 0 || slot >= maxChannels {
		e.mu.Unlock()
		if ownsChunk {
			chunk.release()
		}
		logWarn("no free audio channel for play request")
		return false
	}
	v.channel = slot
	player, err := e.backend.NewPlayer(v)
	if err != nil {
		e.mu.Unlock()
		if ownsChunk {
			chunk.release()
		}
		logWarn("audio backend rejected voice: %v", err)
		return false
	}
	v.player = player
	e.voices[slot] = v
	e.mu.Unlock()

	player.SetVolume(vol)
	player.Play()
	v.state.Store(int32(voicePlaying))
	return true
}

// haltChannel force-stops the voice occupying a channel, if any. The halt
// is authoritative and final for that voice.
func (e *soundEngine) haltChannel(ch int) {
	e.mu.Lock()
	v := e.voices[ch]
	e.mu.Unlock()
	if v == nil {
		return
	}
	v.requestHalt()
	e.finishVoice(v)
}

// stopAllVoices halts and drains every active voice. After it returns no
// voice references the resource table.
func (e *soundEngine) stopAllVoices() {
	e.mu.Lock()
	active := make([]*voice, 0, len(e.voices))
	for _, v := range e.voices {
		active = append(active, v)
	}
	e.mu.Unlock()
	for _, v := range active {
		v.requestHalt()
		e.finishVoice(v)
	}
}

func (e *soundEngine) isChannelPlaying(ch int) bool {
	e.mu.Lock()
	v, ok := e.voices[ch]
	e.mu.Unlock()
	return ok && !v.finished()
}

func (e *soundEngine) activeVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// timeSlowed is the process-wide time-dilation predicate, sampled once per
// output buffer on the real-time path. It is a lock-free, eventually
// consistent read; one buffer of stale speed is not observable.
func (e *soundEngine) timeSlowed() bool {
	return e.slowed.Load()
}

// setTimeDilation flips the global time-dilation effect. All active voices
// pick up the new speed on their next buffer.
func setTimeDilation(slowed bool) {
	if snd != nil {
		snd.slowed.Store(slowed)
	}
}

// checkSound gates every play request on device presence, the user's
// sound-enabled option, and an audible volume.
func checkSound(volume int) bool {
	return snd != nil && gs.SoundEnabled && volume > 0
}

// findRandomEffect returns a uniformly random effect from the best-match
// bucket for the given context, or nil when nothing matches.
func (e *soundEngine) findRandomEffect(key sfxKey) *soundEffect {
	bucket := e.effects.findBest(key)
	if len(bucket) == 0 {
		return nil
	}
	return &bucket[rand.IntN(len(bucket))]
}

// normalizeVolume folds the effect's baseline volume, a user option and a
// per-call scale (each 0-100) into the backend's 0..1 player range.
func normalizeVolume(effectVolume, optionVolume, callVolume int) float64 {
	v := float64(effectVolume*optionVolume*callVolume) / (100 * 100 * 100)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// hasVariantSound reports whether a play request for the given context
// would resolve to at least one effect.
func hasVariantSound(id, variant, season string, indoors, night *bool) bool {
	if snd == nil {
		return false
	}
	key, err := newSfxKey(id, variant, season, indoors, night)
	if err != nil {
		logError("has sound %s/%s: %v", id, variant, err)
		return false
	}
	return snd.findRandomEffect(key) != nil
}

// playVariantSound resolves and plays a sound event. On a resolver miss it
// retries the generic (id, "default") lookup with no context before giving
// up silently.
func playVariantSound(id, variant, season string, indoors, night *bool, volume int) {
	if !checkSound(volume) {
		return
	}
	key, err := newSfxKey(id, variant, season, indoors, night)
	if err != nil {
		logError("play sound %s/%s: %v", id, variant, err)
		return
	}
	eff := snd.findRandomEffect(key)
	if eff == nil {
		generic, _ := newSfxKey(id, "default", "", nil, nil)
		if eff = snd.findRandomEffect(generic); eff == nil {
			return
		}
	}
	logDebug("sound id: %s, variant: %s, volume: %d", id, variant, volume)

	chunk := snd.res.materialize(eff.resource)
	vol := normalizeVolume(eff.volume, gs.SoundEffectVolume, volume)
	if !snd.startVoice(channelAny, chunk, 0, vol, false, nil, 0) {
		logError("failed to play sound effect id:%s variant:%s season:%s", id, variant, season)
	}
}

// playVariantSoundPitched plays a positioned sound with a one-shot random
// pitch from [pitchMin, pitchMax]. The pitch-shifted buffer is exclusively
// owned by the voice and released when it finishes.
func playVariantSoundPitched(id, variant, season string, indoors, night *bool, volume int, angle float64, pitchMin, pitchMax float64) {
	if !checkSound(volume) {
		return
	}
	key, err := newSfxKey(id, variant, season, indoors, night)
	if err != nil {
		logError("play sound %s/%s: %v", id, variant, err)
		return
	}
	eff := snd.findRandomEffect(key)
	if eff == nil {
		return
	}
	logDebug("sound id: %s, variant: %s, volume: %d", id, variant, volume)

	chunk := snd.res.materialize(eff.resource)
	ownsChunk := false
	if pitchMin > 0 && pitchMax > 0 {
		pitch := pitchMin + rand.Float64()*(pitchMax-pitchMin)
		chunk = pitchShift(chunk, pitch)
		ownsChunk = true
	}
	vol := normalizeVolume(eff.volume, gs.SoundEffectVolume, volume)
	if !snd.startVoice(channelAny, chunk, 0, vol, ownsChunk, &angle, 0) {
		logError("failed to play sound effect id:%s variant:%s season:%s", id, variant, season)
	}
}

// playAmbientVariantSound starts a long-lived sound on a dedicated
// channel. It is a no-op while the channel is already occupied.
func playAmbientVariantSound(id, variant, season string, indoors, night *bool, volume int, ch int, fadeIn time.Duration, pitch float64, loops int) {
	if !checkSound(volume) {
		return
	}
	if snd.isChannelPlaying(ch) {
		return
	}
	key, err := newSfxKey(id, variant, season, indoors, night)
	if err != nil {
		logError("play ambient %s/%s: %v", id, variant, err)
		return
	}
	eff := snd.findRandomEffect(key)
	if eff == nil {
		return
	}

	chunk := snd.res.materialize(eff.resource)
	ownsChunk := false
	if pitch > 0 {
		chunk = pitchShift(chunk, pitch)
		ownsChunk = true
	}
	vol := normalizeVolume(eff.volume, gs.AmbientVolume, volume)
	if !snd.startVoice(ch, chunk, loops, vol, ownsChunk, nil, fadeIn) {
		logError("failed to play ambient sound id:%s variant:%s season:%s", id, variant, season)
	}
}

// stopAllSounds halts every active voice and the music slot.
func stopAllSounds() {
	if snd == nil {
		return
	}
	snd.stopAllVoices()
	snd.stopMusic()
}
