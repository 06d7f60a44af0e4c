package main

import (
	"io"
	"math"
	"sync"
	"sync/atomic"
)

const (
	// Playback speed while time dilation is active. Artifacts appear if
	// this is not a power-of-two fraction.
	slowedSpeedFactor = 0.25

	// Stand-in budget for "loop forever". The channel is expected to be
	// halted externally long before this runs out; the budget keeps the
	// resample loop finite if the halt signal is delayed.
	unboundedLoopBudget = 10000
)

type voiceState int32

const (
	voiceStarting voiceState = iota
	voicePlaying
	voiceFinished
)

// voice is one concurrently playing sound instance. The backend's audio
// goroutine pulls interleaved stereo s16 frames through Read; the resample
// cursor (pos, loops, framesOut) is touched only there. The main goroutine
// communicates through the halted flag and the engine's teardown path.
type voice struct {
	engine    *soundEngine
	channel   int
	chunk     *pcmChunk
	ownsChunk bool

	pos   float64 // fractional read index into chunk, in frames
	loops int     // full passes remaining after the current one

	leftGain, rightGain float64
	fadeFrames          int
	framesOut           int

	halted atomic.Bool
	state  atomic.Int32

	doneOnce sync.Once
	player   mixerPlayer
}

func (v *voice) requestHalt() {
	v.halted.Store(true)
}

func (v *voice) finished() bool {
	return v.halted.Load()
}

// Read produces the next buffer of output frames. Called by the backend's
// real-time goroutine, potentially many times per second; it must stay
// within the buffer's time budget and never read outside the source chunk.
//
// Each call snapshots the instantaneous playback speed, so a change to the
// global time-dilation flag takes effect on the next buffer with no
// audible seam. For every output frame the two source samples bracketing
// the fractional read position are linearly interpolated per channel, then
// the position advances by the speed. Reaching the end of the source
// decrements the loop counter and wraps the position by modulo, keeping
// the fractional remainder so looped playback is seamless.
func (v *voice) Read(p []byte) (int, error) {
	if v.halted.Load() {
		return 0, io.EOF
	}
	frames := v.chunk.frames()
	if frames == 0 {
		v.requestHalt()
		return 0, io.EOF
	}
	src := v.chunk.data

	speed := 1.0
	if v.engine != nil && v.engine.timeSlowed() {
		speed = slowedSpeedFactor
	}

	n := 0
	for out := 0; out < len(p)/bytesPerFrame; out++ {
		if v.loops < 0 {
			break
		}
		low := int(v.pos)
		if low >= frames {
			low = frames - 1
		}
		high := low + 1
		if high >= frames {
			high = 0 // wrap so looped playback has no seam
		}
		frac := v.pos - float64(low)

		gain := 1.0
		if v.fadeFrames > 0 && v.framesOut < v.fadeFrames {
			gain = float64(v.framesOut) / float64(v.fadeFrames)
		}
		for ch := 0; ch < chunkChannels; ch++ {
			off := ch * bytesPerSample
			lo := float64(int16FromLE(src[low*bytesPerFrame+off:]))
			hi := float64(int16FromLE(src[high*bytesPerFrame+off:]))
			s := lo + (hi-lo)*frac
			if ch == 0 {
				s *= v.leftGain * gain
			} else {
				s *= v.rightGain * gain
			}
			putInt16LE(p[out*bytesPerFrame+off:], clampSample(s))
		}

		v.framesOut++
		n += bytesPerFrame
		v.pos += speed
		if v.pos >= float64(frames) {
			v.loops--
			v.pos = math.Mod(v.pos, float64(frames))
		}
	}

	if v.loops < 0 {
		// Natural end of the final pass: stop producing and ask the
		// backend to halt the channel. Further invocations are no-ops.
		v.requestHalt()
		return n, io.EOF
	}
	return n, nil
}

func int16FromLE(b []byte) int16 {
	return int16(uint16(b[0]) | uint16(b[1])<<8)
}

func putInt16LE(b []byte, v int16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func clampSample(s float64) int16 {
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

// panGains converts a simple stereo position to left/right gains. The
// angle is in degrees, 0 straight ahead, positive to the right.
func panGains(angle float64) (left, right float64) {
	pan := math.Sin(angle * math.Pi / 180)
	left, right = 1, 1
	if pan > 0 {
		left = 1 - pan
	} else if pan < 0 {
		right = 1 + pan
	}
	return left, right
}
