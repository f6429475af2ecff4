// Package viewstate holds the per-image view transform and effect parameters
// that the playlist engine saves and restores when moving between images.
package viewstate

// Vec2 is a pair of float components used for scale and pan offsets.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of v and o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Size is a width/height pair for images and the drawing canvas.
type Size struct {
	Width  float64
	Height float64
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// EffectsConfig holds the user-tunable camera shake and pulse parameters.
type EffectsConfig struct {
	EnableShake    bool
	ShakeAmount    float64
	ShakeFrequency float64

	EnablePulse     bool
	PulseInterval   float64 // seconds between pulses
	PulseRandomness float64 // percent jitter applied to PulseInterval
	PulseDamping    float64
	PulsePowerX     float64
	PulsePowerY     float64
}

// DefaultEffects returns effect parameters with both effects disabled.
// The magnitudes match what a playlist file implies when a field is missing.
func DefaultEffects() EffectsConfig {
	return EffectsConfig{
		EnableShake:     false,
		ShakeAmount:     1.0,
		ShakeFrequency:  1.0,
		EnablePulse:     false,
		PulseInterval:   1.0,
		PulseRandomness: 50,
		PulseDamping:    5.0,
		PulsePowerX:     200,
		PulsePowerY:     200,
	}
}

// EffectsRuntime is the running animation progress of the shake and pulse
// effects. It is stored alongside the transform so a revisited image resumes
// its animation instead of restarting from zero.
type EffectsRuntime struct {
	ShakeClock         float64
	TimeSinceLastPulse float64
	NextPulseTime      float64
	CurrentPulseOffset Vec2
	TargetPulseOffset  Vec2
}

// ViewState captures one image slot's transform and effects.
//
// BasePan never contains shake or pulse contributions. The pan that reaches
// the screen is RenderedPan(offset), recomputed every frame.
type ViewState struct {
	Scale   Vec2
	BasePan Vec2
	Effects EffectsConfig
	Runtime EffectsRuntime
}

// New returns an identity transform carrying the given effects.
func New(effects EffectsConfig) ViewState {
	return ViewState{
		Scale:   Vec2{X: 1, Y: 1},
		Effects: effects,
	}
}

// Default returns an identity transform with effects disabled.
func Default() ViewState {
	return New(DefaultEffects())
}

// ResetRuntime zeroes the animation progress while keeping transform and config.
func (vs *ViewState) ResetRuntime() {
	vs.Runtime = EffectsRuntime{}
}

// RenderedPan is the pan offset to draw with for a frame whose combined
// shake and pulse displacement is offset.
func (vs ViewState) RenderedPan(offset Vec2) Vec2 {
	return vs.BasePan.Add(offset)
}

// FitToCanvas scales an image uniformly so it fits entirely inside canvas and
// centers it. An unknown image or canvas size yields the identity transform.
func FitToCanvas(img, canvas Size) (scale Vec2, basePan Vec2) {
	if !img.Valid() || !canvas.Valid() {
		return Vec2{X: 1, Y: 1}, Vec2{}
	}
	s := canvas.Width / img.Width
	if h := canvas.Height / img.Height; h < s {
		s = h
	}
	scaledW := img.Width * s
	scaledH := img.Height * s
	return Vec2{X: s, Y: s}, Vec2{
		X: (canvas.Width - scaledW) / 2,
		Y: (canvas.Height - scaledH) / 2,
	}
}

// Fit applies FitToCanvas to vs, leaving effects untouched.
func (vs *ViewState) Fit(img, canvas Size) {
	vs.Scale, vs.BasePan = FitToCanvas(img, canvas)
}

// ZoomAround multiplies the scale by factor while keeping the canvas point
// anchor fixed over the same image pixel.
func (vs *ViewState) ZoomAround(factor float64, anchor Vec2, minScale, maxScale float64) {
	if factor <= 0 || vs.Scale.X == 0 || vs.Scale.Y == 0 {
		return
	}
	imgX := (anchor.X - vs.BasePan.X) / vs.Scale.X
	imgY := (anchor.Y - vs.BasePan.Y) / vs.Scale.Y

	vs.Scale.X = clamp(vs.Scale.X*factor, minScale, maxScale)
	vs.Scale.Y = clamp(vs.Scale.Y*factor, minScale, maxScale)

	vs.BasePan.X = anchor.X - imgX*vs.Scale.X
	vs.BasePan.Y = anchor.Y - imgY*vs.Scale.Y
}

// PanBy moves the base pan by delta.
func (vs *ViewState) PanBy(delta Vec2) {
	vs.BasePan = vs.BasePan.Add(delta)
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
