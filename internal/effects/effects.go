// Package effects animates the camera shake and pulse offsets layered on top
// of an image's base pan.
package effects

import (
	"math"
	"math/rand"
	"time"

	"gazer/internal/viewstate"
)

// FrameStep is the nominal frame interval used by the render loop.
const FrameStep = 1.0 / 60.0

// Animator produces per-frame pixel offsets from effect parameters.
// It holds no per-image state; all progress lives in the EffectsRuntime it is given.
type Animator struct {
	rng *rand.Rand
}

// NewAnimator creates an Animator with a time-seeded random source.
func NewAnimator() *Animator {
	return NewAnimatorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewAnimatorWithSource creates an Animator with a caller-supplied random source.
func NewAnimatorWithSource(src rand.Source) *Animator {
	return &Animator{rng: rand.New(src)}
}

// Step advances rt by dt seconds and returns the combined shake and pulse
// offset to add to the base pan for this frame.
func (a *Animator) Step(dt float64, cfg viewstate.EffectsConfig, rt *viewstate.EffectsRuntime) viewstate.Vec2 {
	rt.ShakeClock += dt * cfg.ShakeFrequency

	var pulse viewstate.Vec2
	if cfg.EnablePulse {
		rt.TimeSinceLastPulse += dt
		if rt.TimeSinceLastPulse >= rt.NextPulseTime {
			a.TriggerPulse(cfg, rt)
		}

		cur, tgt := &rt.CurrentPulseOffset, &rt.TargetPulseOffset
		if math.Abs(cur.X) < math.Abs(tgt.X)*0.95 {
			// rise toward the target five times faster than the decay
			rise := cfg.PulseDamping * 5 * dt
			cur.X += (tgt.X - cur.X) * rise
			cur.Y += (tgt.Y - cur.Y) * rise
		} else {
			damp := math.Exp(-cfg.PulseDamping * dt)
			cur.X *= damp
			cur.Y *= damp
			tgt.X *= damp
			tgt.Y *= damp
		}
		pulse = *cur
	}

	var shake viewstate.Vec2
	if cfg.EnableShake {
		shake.X = smoothShake(rt.ShakeClock, 0.5, 1.3) * cfg.ShakeAmount
		shake.Y = smoothShake(rt.ShakeClock+100, 0.7, 1.1) * cfg.ShakeAmount
	}

	return shake.Add(pulse)
}

// TriggerPulse starts a new pulse in a random direction and schedules the next one.
func (a *Animator) TriggerPulse(cfg viewstate.EffectsConfig, rt *viewstate.EffectsRuntime) {
	dirX := 1.0
	if a.rng.Float64() <= 0.5 {
		dirX = -1
	}
	dirY := 1.0
	if a.rng.Float64() <= 0.5 {
		dirY = -1
	}
	if a.rng.Float64() < 0.5 {
		dirY = dirX
	}

	factorX := 0.7 + a.rng.Float64()*0.6
	factorY := 0.7 + a.rng.Float64()*0.6

	rt.TargetPulseOffset = viewstate.Vec2{
		X: dirX * cfg.PulsePowerX * factorX / 100,
		Y: dirY * cfg.PulsePowerY * factorY / 100,
	}
	rt.CurrentPulseOffset = viewstate.Vec2{}
	a.scheduleNextPulse(cfg, rt)
}

func (a *Animator) scheduleNextPulse(cfg viewstate.EffectsConfig, rt *viewstate.EffectsRuntime) {
	jitter := 1 + (a.rng.Float64()*2-1)*(cfg.PulseRandomness/100)
	rt.NextPulseTime = cfg.PulseInterval * jitter
	rt.TimeSinceLastPulse = 0
}

// smoothShake layers three sine waves into a value in roughly [-0.5, 0.5].
func smoothShake(t, speed1, speed2 float64) float64 {
	v := math.Sin(t*speed1) * 0.4
	v += math.Sin(t*speed2*2.5) * 0.1
	v += math.Sin(t*speed1*0.6+0.5) * 0.25
	return v * 0.5
}
