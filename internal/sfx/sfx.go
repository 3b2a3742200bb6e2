// Package sfx plays the synthesized sound cues. Playback is best effort:
// a player that could not open the audio device stays silent.
package sfx

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Sound names a cue. The names match the sequencer's cue names.
type Sound string

const (
	SoundCountdown Sound = "countdown"
	SoundGo        Sound = "go"
	SoundSuccess   Sound = "success"
	SoundFail      Sound = "fail"
	SoundComplete  Sound = "complete"
	SoundTimeUp    Sound = "timeup"
)

const SampleRate = beep.SampleRate(44100)

// Player mixes cues into one output stream.
type Player struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	volume float64
	mixer  *beep.Mixer
	ready  bool
}

// NewPlayer returns a silent player with the given gain in [0,1].
func NewPlayer(volume float64) *Player {
	return &Player{rate: SampleRate, volume: clamp(volume), mixer: &beep.Mixer{}}
}

// Init opens the speaker. An error leaves the player silent; callers may
// ignore it.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.ready = true
	return nil
}

// Close silences the player.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.ready = false
}

func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = clamp(v)
	p.mu.Unlock()
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play queues a cue and returns immediately.
func (p *Player) Play(sound Sound) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sfx play failed sound=%s err=%v", sound, r)
		}
	}()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || p.volume <= 0 {
		return
	}
	s := Build(sound, p.rate, p.volume)
	if s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
