package run

import (
	"time"

	"skrawl/internal/config"
	"skrawl/pkg/realtime"
)

const (
	ReasonLives = "lives"
	ReasonTime  = "time"

	NoticeLifeLost = "-1 Life"
)

// NoticeDuration is how long a notice freezes the timer.
const NoticeDuration = time.Second

// Freezer is the part of the sequencer the controller drives.
type Freezer interface {
	SetFrozen(frozen bool)
	Stop()
}

// HUD is the player-facing state owned by the controller.
type HUD struct {
	Lives     int
	MaxLives  int
	Coins     int
	Remaining time.Duration
	Notice    string
	Paused    bool
	Over      bool
	Reason    string
	DevMode   bool
}

// Controller keeps coins and lives for one run. It receives every
// attempt from the sequencer and never changes the sequencer's progress,
// only freezes or stops it. Like the sequencer it runs on the loop
// goroutine.
type Controller struct {
	clock   realtime.Scheduler
	level   config.Level
	devMode bool
	notify  func(event string)
	seq     Freezer

	lives     int
	coins     int
	remaining time.Duration
	shown     int64
	notice    string
	noticeT   realtime.Timer
	paused    bool
	over      bool
	reason    string
}

// NewController creates a controller with full lives. notify may be nil.
func NewController(clock realtime.Scheduler, level config.Level, devMode bool, notify func(string)) *Controller {
	if notify == nil {
		notify = func(string) {}
	}
	if level.Lives <= 0 {
		level.Lives = 3
	}
	if level.Multiplier <= 0 {
		level.Multiplier = 1
	}
	return &Controller{
		clock:     clock,
		level:     level,
		devMode:   devMode,
		notify:    notify,
		lives:     level.Lives,
		remaining: level.Duration,
		shown:     -1,
	}
}

// Attach sets the sequencer the controller freezes and stops.
func (c *Controller) Attach(seq Freezer) {
	c.seq = seq
}

// Attempt credits a completion or takes a life for a failure. Successful
// attempts with no reward are progress within an instance.
func (c *Controller) Attempt(success bool, reward int) {
	if c.over {
		return
	}
	if success {
		if reward > 0 {
			c.coins += reward * c.level.Multiplier
			c.notify(EventHUD)
		}
		return
	}
	if c.devMode {
		return
	}
	c.lives--
	if c.lives <= 0 {
		c.lives = 0
		c.finish(ReasonLives)
		return
	}
	c.showNotice(NoticeLifeLost)
}

// Tick records the remaining time and publishes when the displayed second
// changes.
func (c *Controller) Tick(remaining time.Duration) {
	c.remaining = remaining
	secs := int64((remaining + time.Second - 1) / time.Second)
	if secs != c.shown {
		c.shown = secs
		c.notify(EventHUD)
	}
}

func (c *Controller) TimeUp() {
	if c.devMode {
		return
	}
	c.finish(ReasonTime)
}

func (c *Controller) Changed() {
	c.notify(EventBoard)
}

func (c *Controller) showNotice(text string) {
	if c.noticeT != nil {
		c.noticeT.Stop()
	}
	c.notice = text
	c.noticeT = c.clock.AfterFunc(NoticeDuration, func(time.Time) {
		c.noticeT = nil
		c.notice = ""
		c.applyFreeze()
		c.notify(EventHUD)
	})
	c.applyFreeze()
	c.notify(EventHUD)
}

// SetPaused records a pause requested by the player or the client, such as
// a hidden tab. The timer stays frozen while a pause or a notice holds it.
func (c *Controller) SetPaused(paused bool) {
	if c.paused == paused {
		return
	}
	c.paused = paused
	c.applyFreeze()
	c.notify(EventHUD)
}

func (c *Controller) applyFreeze() {
	if c.seq == nil || c.over {
		return
	}
	c.seq.SetFrozen(c.paused || c.noticeT != nil)
}

func (c *Controller) finish(reason string) {
	if c.over {
		return
	}
	c.over = true
	c.reason = reason
	if c.noticeT != nil {
		c.noticeT.Stop()
		c.noticeT = nil
	}
	c.notice = ""
	if c.seq != nil {
		c.seq.Stop()
	}
	c.notify(EventHUD)
}

// Reset restores full lives and clears coins for a restart.
func (c *Controller) Reset() {
	if c.noticeT != nil {
		c.noticeT.Stop()
		c.noticeT = nil
	}
	c.lives = c.level.Lives
	c.coins = 0
	c.remaining = c.level.Duration
	c.shown = -1
	c.notice = ""
	c.over = false
	c.reason = ""
	c.notify(EventHUD)
}

func (c *Controller) Over() bool { return c.over }

func (c *Controller) HUD() HUD {
	return HUD{
		Lives:     c.lives,
		MaxLives:  c.level.Lives,
		Coins:     c.coins,
		Remaining: c.remaining,
		Notice:    c.notice,
		Paused:    c.paused,
		Over:      c.over,
		Reason:    c.reason,
		DevMode:   c.devMode,
	}
}
