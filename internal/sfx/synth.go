package sfx

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// Wave is an oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
)

// sweep is an oscillator whose frequency ramps exponentially from one
// value to another over its duration.
type sweep struct {
	from, to float64
	wave     Wave
	rate     beep.SampleRate
	total    int
	pos      int
	phase    float64
}

// NewSweep returns a finite tone ramping from `from` Hz to `to` Hz. Equal
// frequencies give a plain tone.
func NewSweep(from, to float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &sweep{from: from, to: to, wave: wave, rate: rate, total: rate.N(d)}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.pos >= s.total {
			return i, i > 0
		}
		progress := float64(s.pos) / float64(s.total)
		freq := s.from * math.Pow(s.to/s.from, progress)

		var val float64
		switch s.wave {
		case WaveSquare:
			if s.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case WaveSaw:
			val = 2 * (s.phase - 0.5)
		default:
			val = math.Sin(2 * math.Pi * s.phase)
		}
		samples[i][0] = val
		samples[i][1] = val

		s.phase += freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// envelope applies a linear attack and release to a finite stream.
type envelope struct {
	streamer beep.Streamer
	pos      int
	attack   int
	release  int
	total    int
}

func NewEnvelope(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{streamer: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(d)}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.pos >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.pos < e.attack && e.attack > 0 {
			vol = float64(e.pos) / float64(e.attack)
		}
		if start := e.total - e.release; e.pos >= start && e.release > 0 {
			vol = math.Max(0, float64(e.total-e.pos)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// gain scales a stream linearly. Zero or less is silent, since the volume
// effect works in log space.
func gain(s beep.Streamer, g float64) beep.Streamer {
	if g <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(g)}
}

func tone(from, to float64, d, attack, release time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return NewEnvelope(NewSweep(from, to, d, wave, rate), d, attack, release, rate)
}

// Build synthesizes sound at the given gain in [0,1]. Unknown sounds
// return nil.
func Build(sound Sound, rate beep.SampleRate, volume float64) beep.Streamer {
	var s beep.Streamer
	switch sound {
	case SoundCountdown:
		s = gain(tone(520, 280, 240*time.Millisecond, 5*time.Millisecond, 200*time.Millisecond, WaveSine, rate), 0.18)
	case SoundGo:
		chime, err := generators.SineTone(rate, 880)
		if err != nil {
			return nil
		}
		d := 350 * time.Millisecond
		s = gain(beep.Mix(
			NewEnvelope(beep.Take(rate.N(d), chime), d, 5*time.Millisecond, 250*time.Millisecond, rate),
			gain(tone(1320, 1320, d, 5*time.Millisecond, 300*time.Millisecond, WaveSine, rate), 0.4),
		), 0.25)
	case SoundSuccess:
		s = gain(tone(660, 990, 120*time.Millisecond, 5*time.Millisecond, 80*time.Millisecond, WaveSine, rate), 0.25)
	case SoundFail:
		s = gain(tone(140, 100, 180*time.Millisecond, 10*time.Millisecond, 60*time.Millisecond, WaveSaw, rate), 0.15)
	case SoundComplete:
		s = gain(beep.Seq(
			tone(987.77, 987.77, 80*time.Millisecond, 2*time.Millisecond, 30*time.Millisecond, WaveSquare, rate),
			tone(1318.51, 1318.51, 260*time.Millisecond, 2*time.Millisecond, 200*time.Millisecond, WaveSquare, rate),
		), 0.12)
	case SoundTimeUp:
		s = gain(tone(440, 110, 600*time.Millisecond, 10*time.Millisecond, 300*time.Millisecond, WaveSquare, rate), 0.12)
	default:
		return nil
	}
	return gain(s, volume)
}
