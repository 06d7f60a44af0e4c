package main

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
)

var errStubBackend = errors.New("stub backend failure")

// stubBackend stands in for the audio device in tests. Its players only
// consume their source stream when a test pumps them, which makes the
// real-time path deterministic.
type stubBackend struct {
	rate    int
	failNew bool

	mu      sync.Mutex
	players []*stubPlayer
}

func newStubBackend() *stubBackend {
	return &stubBackend{rate: sampleRate}
}

func (b *stubBackend) SampleRate() int { return b.rate }

func (b *stubBackend) NewPlayer(src io.Reader) (mixerPlayer, error) {
	if b.failNew {
		return nil, errStubBackend
	}
	p := &stubPlayer{src: src}
	b.mu.Lock()
	b.players = append(b.players, p)
	b.mu.Unlock()
	return p, nil
}

func (b *stubBackend) playerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.players)
}

func (b *stubBackend) allPlayers() []*stubPlayer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*stubPlayer(nil), b.players...)
}

func (b *stubBackend) lastPlayer() *stubPlayer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.players) == 0 {
		return nil
	}
	return b.players[len(b.players)-1]
}

type stubPlayer struct {
	mu      sync.Mutex
	src     io.Reader
	volume  float64
	playing bool
	drained bool
	closed  bool
}

func (p *stubPlayer) Play() {
	p.mu.Lock()
	if !p.closed && !p.drained {
		p.playing = true
	}
	p.mu.Unlock()
}

func (p *stubPlayer) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *stubPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.drained && !p.closed
}

func (p *stubPlayer) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

func (p *stubPlayer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.playing = false
	p.mu.Unlock()
	return nil
}

// pump reads up to n bytes from the voice stream, as the device would.
func (p *stubPlayer) pump(n int) int {
	buf := make([]byte, n)
	read, err := p.src.Read(buf)
	if err == io.EOF {
		p.mu.Lock()
		p.drained = true
		p.playing = false
		p.mu.Unlock()
	}
	return read
}

// drain pumps the stream until it signals completion.
func (p *stubPlayer) drain() {
	for !p.drained {
		p.pump(4096)
	}
}

// withTestEngine installs a fresh engine backed by the stub device as the
// process-wide handle and restores the previous state on cleanup.
func withTestEngine(t *testing.T) (*soundEngine, *stubBackend) {
	t.Helper()
	b := newStubBackend()
	e := newSoundEngine(b)
	oldSnd, oldGS := snd, gs
	snd = e
	gs = gsdef
	t.Cleanup(func() {
		close(e.janitorStop)
		snd, gs = oldSnd, oldGS
	})
	return e, b
}

// makeChunk builds a stereo chunk whose left samples ramp by 100 per frame
// and whose right samples mirror them negated.
func makeChunk(frames int) *pcmChunk {
	c := &pcmChunk{data: make([]byte, frames*bytesPerFrame)}
	for i := 0; i < frames; i++ {
		c.setSample(i, 0, int16(i*100))
		c.setSample(i, 1, int16(-i*100))
	}
	return c
}

// writeWAV writes a minimal PCM wav file (stereo, 16-bit, device rate)
// with ramping samples.
func writeWAV(t *testing.T, path string, frames int) {
	t.Helper()
	pcm := makeChunk(frames).data

	var header [44]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+len(pcm)))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], chunkChannels)
	binary.LittleEndian.PutUint32(header[24:], sampleRate)
	binary.LittleEndian.PutUint32(header[28:], sampleRate*bytesPerFrame)
	binary.LittleEndian.PutUint16(header[32:], bytesPerFrame)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(len(pcm)))

	if err := os.WriteFile(path, append(header[:], pcm...), 0644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

func optBool(v bool) *bool { return &v }
