package player

import (
	"math"

	"github.com/gopxl/beep/v2/effects"
)

// SetVolume sets the output level (0.0 to 1.0). The level is kept across
// loads and applied to the current session right away.
func (p *Player) SetVolume(level float64) {
	level = max(0, min(level, 1))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = level
	if p.sess == nil {
		return
	}
	p.out.Lock()
	applyVolume(p.sess.volume, level)
	p.out.Unlock()
}

// applyVolume sets v to level. Zero is silent rather than merely quiet.
func applyVolume(v *effects.Volume, level float64) {
	v.Volume = levelToVolume(level)
	v.Silent = level <= 0
}

// Volume returns the output level (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// levelToVolume converts a 0.0-1.0 level to beep's base-2 Volume value.
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (inaudible).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
