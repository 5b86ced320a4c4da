package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"lanewars.io/internal/sim/events"
)

const DefaultSampleRate = beep.SampleRate(48000)

// Player implements game.SoundPlayer by mixing synthesized effects. Until Start is called the
// mixer is not attached to a speaker and sounds only accumulate.
type Player struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	volume  float64
	mixer   *beep.Mixer
	started bool
	muted   map[events.SoundKind]bool
}

func NewPlayer(rate beep.SampleRate, volume float64) *Player {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Player{
		rate:   rate,
		volume: volume,
		mixer:  &beep.Mixer{},
		muted:  map[events.SoundKind]bool{},
	}
}

// Start opens the audio device and begins playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.started = true
	return nil
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.started = false
}

func (p *Player) Mute(kind events.SoundKind, muted bool) {
	p.mu.Lock()
	p.muted[kind] = muted
	p.mu.Unlock()
}

func (p *Player) PlaySound(kind events.SoundKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted[kind] {
		return
	}
	s := Effect(kind, p.rate, p.volume)
	if s == nil {
		return
	}
	if p.started {
		speaker.Lock()
		defer speaker.Unlock()
	}
	p.mixer.Add(s)
}

// Active is the number of effects still playing.
func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return p.mixer.Len()
}

// Mixer exposes the underlying mixer so it can be drained without a device.
func (p *Player) Mixer() beep.Streamer { return p.mixer }
