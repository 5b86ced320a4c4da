package audio

import (
	"time"

	"github.com/gopxl/beep"

	"lanewars.io/internal/sim/events"
)

type note struct {
	freq, endFreq float64
	dur           time.Duration
	wave          WaveType
}

func tone(rate beep.SampleRate, n note) beep.Streamer {
	osc := NewSweep(n.freq, n.endFreq, n.dur, n.wave, rate)
	release := n.dur / 2
	return NewEnvelope(osc, n.dur, 5*time.Millisecond, release, rate)
}

func melody(rate beep.SampleRate, notes ...note) beep.Streamer {
	parts := make([]beep.Streamer, len(notes))
	for i, n := range notes {
		parts[i] = tone(rate, n)
	}
	return beep.Seq(parts...)
}

// Effect synthesizes the streamer for a sound kind, or nil for an unknown kind.
func Effect(kind events.SoundKind, rate beep.SampleRate, vol float64) beep.Streamer {
	var s beep.Streamer
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	switch kind {
	case events.SoundShoot:
		s = tone(rate, note{1400, 500, ms(60), WaveSquare})
	case events.SoundTurretShoot:
		s = beep.Take(rate.N(ms(250)), beep.Mix(
			tone(rate, note{180, 60, ms(250), WaveSaw}),
			newVolume(tone(rate, note{0, 0, ms(200), WaveNoise}), 0.5),
		))
	case events.SoundSplat:
		s = tone(rate, note{0, 0, ms(120), WaveNoise})
	case events.SoundVictory:
		s = melody(rate,
			note{523.25, 523.25, ms(150), WaveSquare},
			note{659.25, 659.25, ms(150), WaveSquare},
			note{783.99, 783.99, ms(150), WaveSquare},
			note{1046.5, 1046.5, ms(400), WaveSquare},
		)
	case events.SoundDefeat:
		s = melody(rate,
			note{392, 392, ms(200), WaveSaw},
			note{311.13, 311.13, ms(200), WaveSaw},
			note{261.63, 196, ms(500), WaveSaw},
		)
	case events.SoundCapture:
		s = melody(rate, note{660, 660, ms(90), WaveSine}, note{990, 990, ms(140), WaveSine})
	case events.SoundLoseCapture:
		s = melody(rate, note{990, 990, ms(90), WaveSine}, note{495, 495, ms(160), WaveSine})
	case events.SoundGainResource:
		s = melody(rate, note{987.77, 987.77, ms(80), WaveSquare}, note{1318.51, 1318.51, ms(160), WaveSquare})
	case events.SoundSpawn:
		s = tone(rate, note{220, 880, ms(180), WaveSine})
	case events.SoundPurchaseUpgrade:
		s = tone(rate, note{440, 1760, ms(220), WaveSquare})
	default:
		return nil
	}
	return newVolume(s, vol)
}
