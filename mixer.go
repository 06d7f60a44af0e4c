package main

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// mixerPlayer is one backend playback slot. *audio.Player satisfies it.
type mixerPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// mixerBackend is the mixing capability this core consumes: it accepts
// PCM streams (the backend's audio goroutine pulls samples through Read)
// and hands back player handles. Production uses the ebiten audio context;
// tests substitute a stub.
type mixerBackend interface {
	SampleRate() int
	NewPlayer(src io.Reader) (mixerPlayer, error)
}

type ebitenBackend struct {
	ctx *audio.Context
}

// newEbitenBackend opens the audio device. This is the only failure that
// surfaces to the application; everything downstream degrades to silence.
// The context must be created at most once per process.
func newEbitenBackend(rate int) (b *ebitenBackend, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audio device init failed: %v", r)
		}
	}()
	return &ebitenBackend{ctx: audio.NewContext(rate)}, nil
}

func (b *ebitenBackend) SampleRate() int {
	return b.ctx.SampleRate()
}

func (b *ebitenBackend) NewPlayer(src io.Reader) (mixerPlayer, error) {
	p, err := b.ctx.NewPlayer(src)
	if err != nil {
		return nil, err
	}
	return p, nil
}
