package main

// pitchShift returns a new chunk resampled by pitch using block averaging:
// every output frame is the arithmetic mean of the input frames whose
// indices fall in its fractional window, per channel. Cheap and one-shot;
// the continuous time-dilation path uses live interpolation in the voice
// instead. The source is not modified and the caller owns the result.
func pitchShift(src *pcmChunk, pitch float64) *pcmChunk {
	inFrames := src.frames()
	outFrames := int(float64(inFrames) * pitch)
	if inFrames == 0 || outFrames <= 0 {
		return silentChunk()
	}
	// Re-derive the effective factor from the rounded length so the last
	// window still lands inside the input.
	realPitch := float64(outFrames) / float64(inFrames)

	out := &pcmChunk{data: make([]byte, outFrames*bytesPerFrame)}
	for i := 0; i < outFrames; i++ {
		begin := int(float64(i) / realPitch)
		end := int(float64(i+1) / realPitch)
		if end > 0 && end >= inFrames {
			end = begin
		}
		var lt, rt int64
		for j := begin; j <= end; j++ {
			lt += int64(src.sampleAt(j, 0))
			rt += int64(src.sampleAt(j, 1))
		}
		n := int64(end - begin + 1)
		out.setSample(i, 0, int16(lt/n))
		out.setSample(i, 1, int16(rt/n))
	}
	return out
}
