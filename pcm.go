package main

import "encoding/binary"

// Decoded audio is interleaved stereo, signed 16-bit little-endian samples
// at the device rate. The decoders convert everything to this format up
// front so the real-time path never branches on layout.
const (
	sampleRate     = 44100
	bytesPerSample = 2
	chunkChannels  = 2
	bytesPerFrame  = bytesPerSample * chunkChannels
)

// pcmChunk is decoded raw sample data ready for mixing. A chunk is either
// shared, read-only and owned by the resource table, or exclusively owned
// by a single voice (pitch-shifted one-offs).
type pcmChunk struct {
	data     []byte
	released int
}

func (c *pcmChunk) frames() int {
	if c == nil {
		return 0
	}
	return len(c.data) / bytesPerFrame
}

// sampleAt returns the sample for one channel (0 = left) of the given frame.
func (c *pcmChunk) sampleAt(frame, ch int) int16 {
	off := frame*bytesPerFrame + ch*bytesPerSample
	return int16(binary.LittleEndian.Uint16(c.data[off:]))
}

func (c *pcmChunk) setSample(frame, ch int, v int16) {
	off := frame*bytesPerFrame + ch*bytesPerSample
	binary.LittleEndian.PutUint16(c.data[off:], uint16(v))
}

// release marks an exclusively owned chunk as spent. The sample data is
// left intact: the device goroutine may be inside a Read that already
// captured the buffer, so clearing it here could tear a read in flight.
// The memory is reclaimed by the collector once the last voice reference
// drops.
func (c *pcmChunk) release() {
	if c == nil {
		return
	}
	c.released++
}

// silentChunk returns a valid, empty chunk. It stands in for resources that
// failed to decode so playback silently no-ops instead of crashing.
func silentChunk() *pcmChunk {
	return &pcmChunk{}
}
