package main

import "testing"

func chunkLeft(c *pcmChunk) []int16 {
	out := make([]int16, c.frames())
	for i := range out {
		out[i] = c.sampleAt(i, 0)
	}
	return out
}

func TestPitchShiftUnity(t *testing.T) {
	// Unity pitch still block-averages adjacent frames; only the final
	// frame, whose window is clamped, passes through unchanged.
	got := chunkLeft(pitchShift(makeChunk(4), 1.0))
	want := []int16{50, 150, 250, 300}
	if len(got) != len(want) {
		t.Fatalf("frames = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPitchShiftDown(t *testing.T) {
	got := chunkLeft(pitchShift(makeChunk(4), 0.5))
	// Two output frames: mean(0,100,200) then the clamped final window.
	want := []int16{100, 200}
	if len(got) != len(want) {
		t.Fatalf("frames = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPitchShiftUp(t *testing.T) {
	got := chunkLeft(pitchShift(makeChunk(2), 2.0))
	want := []int16{0, 50, 100, 100}
	if len(got) != len(want) {
		t.Fatalf("frames = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPitchShiftMirrorsChannels(t *testing.T) {
	out := pitchShift(makeChunk(4), 0.5)
	for i := 0; i < out.frames(); i++ {
		if out.sampleAt(i, 1) != -out.sampleAt(i, 0) {
			t.Errorf("frame %d = (%d, %d), channels diverged", i, out.sampleAt(i, 0), out.sampleAt(i, 1))
		}
	}
}

func TestPitchShiftDegenerate(t *testing.T) {
	if got := pitchShift(silentChunk(), 1.5); got.frames() != 0 {
		t.Errorf("empty source produced %d frames", got.frames())
	}
	if got := pitchShift(makeChunk(4), 0.1); got.frames() != 0 {
		t.Errorf("pitch rounding to zero frames produced %d frames", got.frames())
	}
}

func TestPitchShiftLeavesSourceIntact(t *testing.T) {
	src := makeChunk(4)
	pitchShift(src, 2.0)
	for i := 0; i < 4; i++ {
		if src.sampleAt(i, 0) != int16(i*100) {
			t.Fatalf("source frame %d mutated to %d", i, src.sampleAt(i, 0))
		}
	}
	if src.released != 0 {
		t.Errorf("source chunk released by pitchShift")
	}
}
