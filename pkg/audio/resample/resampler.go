// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries the last input frame across chunks so boundaries interpolate cleanly
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	lastSample []int32 // one sample per channel
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// InputRate returns the source sample rate
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target sample rate
func (r *Resampler) OutputRate() int { return r.outputRate }

// Resample converts one chunk of interleaved input frames and appends the
// result to dst. The final input frame is held back and interpolated
// against the next chunk.
func (r *Resampler) Resample(dst, input []int32) []int32 {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return dst
	}

	if r.inputRate == r.outputRate {
		return append(dst, input[:inputFrames*r.channels]...)
	}

	// Virtual frame 0 is the held-back frame from the previous chunk
	offset := 0
	if r.primed {
		offset = 1
	}
	frames := inputFrames + offset
	sample := func(frame, ch int) int32 {
		if frame < offset {
			return r.lastSample[ch]
		}
		return input[(frame-offset)*r.channels+ch]
	}

	for {
		idx := int(r.position)
		if idx+1 >= frames {
			break
		}
		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := sample(idx, ch)
			s2 := sample(idx+1, ch)
			dst = append(dst, int32(float64(s1)*(1.0-frac)+float64(s2)*frac))
		}
		r.position += r.ratio
	}

	r.position -= float64(frames - 1)
	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.primed = true

	return dst
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputFrames estimates how many frames inputFrames produce
func (r *Resampler) OutputFrames(inputFrames int) int {
	return int(float64(inputFrames) / r.ratio)
}

// InputFrames estimates how many input frames produce outputFrames
func (r *Resampler) InputFrames(outputFrames int) int {
	return int(float64(outputFrames)*r.ratio + 0.999999)
}

// Convert resamples a complete buffer in one pass
func Convert(input []int32, inputRate, outputRate, channels int) []int32 {
	r := New(inputRate, outputRate, channels)
	out := make([]int32, 0, r.OutputFrames(len(input)/channels)*channels+channels)
	return r.Resample(out, input)
}
