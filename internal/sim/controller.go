package sim

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sgerhart/aegisrange/internal/actions"
	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/escalation"
	"github.com/sgerhart/aegisrange/internal/game"
	"github.com/sgerhart/aegisrange/internal/generator"
	"github.com/sgerhart/aegisrange/internal/model"
	"github.com/sgerhart/aegisrange/internal/rules"
)

// ErrEventNotFound is returned by ApplyAction for an unknown event ID.
var ErrEventNotFound = errors.New("event not found")

// Attacher is a component that registers bus handlers and returns an
// unsubscribe closure. The controller re-attaches the full set after a bus
// reset.
type Attacher interface {
	Attach(*bus.Bus) func()
}

// Controller orchestrates one simulation session: it owns the event
// generation and escalation-sweep timers and serializes every entrypoint
// (timer ticks, presentation commands) through a single session lock, giving
// the core the run-to-completion semantics its synchronous bus fan-outs
// assume.
type Controller struct {
	session sync.Mutex

	bus      *bus.Bus
	model    *game.Model
	gen      *generator.Generator
	engine   *rules.Engine
	impactor *escalation.Impactor
	extras   []Attacher
	logger   *slog.Logger
	rng      *rand.Rand

	baseInterval  time.Duration
	sweepInterval time.Duration
	fpChance      float64

	genTimer   *timerHandle
	sweepTimer *timerHandle
}

// Config wires a Controller. Bus, Model, Generator, Engine, and Impactor are
// required; Extras are optional additional subscribers (e.g. the NATS feed)
// that survive resets.
type Config struct {
	Bus      *bus.Bus
	Model    *game.Model
	Gen      *generator.Generator
	Engine   *rules.Engine
	Impactor *escalation.Impactor
	Extras   []Attacher
	Logger   *slog.Logger
	Rand     *rand.Rand

	// BaseInterval is the unscaled generation period; the effective period
	// is BaseInterval times the current level's frequency multiplier.
	BaseInterval time.Duration

	// SweepInterval is the fixed escalation-sweep period.
	SweepInterval time.Duration

	// FalsePositiveChance is the probability that a noise event spawns a
	// duplicate false-positive alert. Zero means the default; a negative
	// value disables duplicate alerts entirely.
	FalsePositiveChance float64
}

// NewController creates a controller and subscribes the standard handler set.
func NewController(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = 4 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Second
	}
	if cfg.FalsePositiveChance == 0 {
		cfg.FalsePositiveChance = 0.25
	} else if cfg.FalsePositiveChance < 0 {
		cfg.FalsePositiveChance = 0
	}

	c := &Controller{
		bus:           cfg.Bus,
		model:         cfg.Model,
		gen:           cfg.Gen,
		engine:        cfg.Engine,
		impactor:      cfg.Impactor,
		extras:        cfg.Extras,
		logger:        cfg.Logger,
		rng:           cfg.Rand,
		baseInterval:  cfg.BaseInterval,
		sweepInterval: cfg.SweepInterval,
		fpChance:      cfg.FalsePositiveChance,
	}
	c.wire()
	return c
}

// wire subscribes the standard handler set: live rule evaluation, escalation
// impact, level-change timer rescale, and the terminal game:over pause.
func (c *Controller) wire() {
	c.engine.Attach(c.bus)
	c.impactor.Attach(c.bus)

	c.bus.Subscribe(model.TopicLevelChanged, func(payload any) {
		// Published from inside a tick or command, so the session lock is
		// already held.
		c.rescaleGenerationTimerLocked()
	})
	c.bus.Subscribe(model.TopicGameOver, func(payload any) {
		c.pauseLocked()
	})
	c.bus.Subscribe(model.TopicGameCompleted, func(payload any) {
		c.pauseLocked()
	})

	for _, extra := range c.extras {
		extra.Attach(c.bus)
	}
}

// Start begins (or resumes) the simulation loop. Idempotent no-op when
// already running.
func (c *Controller) Start() {
	c.session.Lock()
	defer c.session.Unlock()

	if c.model.IsRunning() {
		return
	}
	c.model.SetRunning(true)

	period := c.generationPeriod()
	c.genTimer = startTimer(period, &c.session, c.generationTick)
	c.sweepTimer = startTimer(c.sweepInterval, &c.session, c.sweepTick)

	c.logger.Info("Simulation started",
		"level", c.model.CurrentLevel().Ordinal,
		"generation_period", period,
		"sweep_interval", c.sweepInterval)

	c.bus.Publish(model.TopicGameStarted, nil)
}

// Pause stops both timers and clears the running flag. Idempotent.
func (c *Controller) Pause() {
	c.session.Lock()
	defer c.session.Unlock()
	c.pauseLocked()
}

// pauseLocked is the session-lock-held pause used both by the Pause command
// and by handlers firing mid-tick (game:over, game:completed).
func (c *Controller) pauseLocked() {
	if !c.model.IsRunning() {
		return
	}

	c.genTimer.cancel()
	c.sweepTimer.cancel()
	c.model.SetRunning(false)

	c.logger.Info("Simulation paused")
	c.bus.Publish(model.TopicGamePaused, nil)
}

// Reset returns the session to its zeroed stopped state: timers cancelled,
// bus subscriptions cleared, state reset, standard handler set re-subscribed,
// then game:reset.
func (c *Controller) Reset() {
	c.session.Lock()
	defer c.session.Unlock()

	c.genTimer.cancel()
	c.sweepTimer.cancel()

	c.bus.Reset()
	c.model.ResetState()
	c.wire()

	c.logger.Info("Session reset")
	c.bus.Publish(model.TopicGameReset, nil)
}

// generationPeriod scales the base interval by the current level's frequency
// multiplier.
func (c *Controller) generationPeriod() time.Duration {
	mult := c.model.CurrentLevel().EventFrequencyMultiplier
	if mult <= 0 {
		mult = 1
	}
	return time.Duration(float64(c.baseInterval) * mult)
}

// rescaleGenerationTimerLocked swaps the generation timer for one matching
// the new level's period. The tick that triggered the level change completes
// on the old handle; the old handle then sees its cancelled flag and exits.
func (c *Controller) rescaleGenerationTimerLocked() {
	if !c.model.IsRunning() || c.genTimer == nil {
		return
	}
	c.genTimer.cancel()
	period := c.generationPeriod()
	c.genTimer = startTimer(period, &c.session, c.generationTick)
	c.logger.Info("Generation timer rescaled", "generation_period", period)
}

// generationTick draws one event per tick and, for noise events, rolls an
// independent die for a duplicate false-positive alert. Runs under the
// session lock.
func (c *Controller) generationTick() {
	lvl := c.model.CurrentLevel()
	ev := c.gen.GenerateEvent(lvl)
	c.model.AddEvent(ev)

	if ev.IsNoise && c.rng.Float64() < c.fpChance {
		dup := c.gen.GenerateDuplicateAlert(ev)
		c.model.AddEvent(dup)
	}
}

// sweepTick runs the escalation sweep. The impactor reacts to the resulting
// events:escalated publish synchronously within this tick.
func (c *Controller) sweepTick() {
	c.model.CheckEscalations()
}

// SeedRules stores pre-validated rules (boot-time rule packs, restored
// snapshots go through Restore instead).
func (c *Controller) SeedRules(rs []model.Rule) {
	c.session.Lock()
	defer c.session.Unlock()

	for _, r := range rs {
		c.model.AddRule(r)
	}
}

// SaveRule validates and stores a player rule submission.
func (c *Controller) SaveRule(sub rules.Submission) (model.Rule, error) {
	c.session.Lock()
	defer c.session.Unlock()

	return c.engine.SaveRule(sub)
}

// TestRule evaluates a submission one-shot against the event log with no
// side effects.
func (c *Controller) TestRule(sub rules.Submission) ([]*model.Event, error) {
	c.session.Lock()
	defer c.session.Unlock()

	return c.engine.TestRule(sub)
}

// ActionResult reports the outcome of an apply-action command.
type ActionResult struct {
	Effective bool `json:"effective"`
	Handled   bool `json:"handled"`
}

// ApplyAction checks a manual remediation against the event's remediation set
// (plus the generic fallback table) and, when effective, routes to the
// handled transition. Acting on a non-malicious event records a false
// positive.
func (c *Controller) ApplyAction(eventID string, action model.ActionTag) (ActionResult, error) {
	c.session.Lock()
	defer c.session.Unlock()

	ev, ok := c.model.EventByID(eventID)
	if !ok {
		return ActionResult{}, ErrEventNotFound
	}

	if ev.Category != model.CategoryMalicious {
		c.model.RecordFalsePositive(ev)
		return ActionResult{}, nil
	}

	if !actions.Effective(ev, action) {
		c.logger.Info("Action ineffective",
			"event_id", ev.ID,
			"event_type", ev.Type,
			"action", action)
		return ActionResult{}, nil
	}

	handled := c.model.MarkEventAsHandled(ev)
	if !handled {
		if state, ok := c.model.TerminalState(ev); ok {
			c.logger.Info("Action applied to terminal event",
				"event_id", ev.ID,
				"event_type", ev.Type,
				"state", state)
		}
	}
	return ActionResult{Effective: true, Handled: handled}, nil
}

// Status is the read model served to the presentation layer.
type Status struct {
	Running       bool                  `json:"running"`
	Level         model.Level           `json:"level"`
	Score         int                   `json:"score"`
	Uptime        float64               `json:"uptime"`
	LevelProgress int                   `json:"level_progress"`
	PendingCount  int                   `json:"pending_count"`
	RuleCount     int                   `json:"rule_count"`
	Traffic       []model.TrafficSample `json:"traffic"`
}

// State captures a consistent view of the session.
func (c *Controller) State() Status {
	c.session.Lock()
	defer c.session.Unlock()

	return Status{
		Running:       c.model.IsRunning(),
		Level:         c.model.CurrentLevel(),
		Score:         c.model.Score(),
		Uptime:        c.model.Uptime(),
		LevelProgress: c.model.LevelProgress(),
		PendingCount:  len(c.model.PendingEvents()),
		RuleCount:     len(c.model.Rules()),
		Traffic:       c.model.Traffic(),
	}
}

// Events returns up to limit recent events.
func (c *Controller) Events(limit int) []*model.Event {
	c.session.Lock()
	defer c.session.Unlock()

	return c.model.Events(limit)
}

// Rules returns the stored rules in evaluation order.
func (c *Controller) Rules() []model.Rule {
	c.session.Lock()
	defer c.session.Unlock()

	return c.model.Rules()
}

// Restore applies a persisted snapshot before the session starts.
func (c *Controller) Restore(snap model.Snapshot) {
	c.session.Lock()
	defer c.session.Unlock()

	c.model.Restore(snap)
}
