package decision

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itzzomkar/NavYatra/pkg/feedback"
	"github.com/itzzomkar/NavYatra/pkg/fleet"
)

const historyCap = 1000

// Config tunes the engine's rule thresholds and loop periods.
type Config struct {
	ConfidenceThreshold    float64       // minimum predicted success to regenerate
	MaxAutonomousTrainsets int           // decisions above this size need approval
	EvaluateInterval       time.Duration // rule evaluation period
	ExecuteInterval        time.Duration // executor period
}

// DefaultConfig returns the production engine settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:    0.75,
		MaxAutonomousTrainsets: 15,
		EvaluateInterval:       30 * time.Second,
		ExecuteInterval:        10 * time.Second,
	}
}

// Predictor serves the tabular success-prediction interface.
type Predictor interface {
	Predict(features map[string]float64) map[string]float64
}

// ScheduleTrigger lets the engine ask the scheduler for an immediate
// regeneration when the optimize-schedule action executes.
type ScheduleTrigger interface {
	GenerateNow(ctx context.Context) error
}

// Engine periodically evaluates the fleet against the decision rules
// and drives resulting decisions through approval and execution. The
// evaluator loop is the only writer that adds to the active set; the
// executor loop is the only one that removes.
type Engine struct {
	cfg       Config
	reader    fleet.Reader
	writer    fleet.StatusWriter
	notifier  fleet.Notifier
	sink      feedback.Sink
	predictor Predictor
	trigger   ScheduleTrigger

	mu      sync.RWMutex
	active  map[string]*Decision
	history []Outcome

	now    func() time.Time
	newID  func() string
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewEngine wires the engine to its collaborators. The schedule
// trigger is attached later by the owning service, after the scheduler
// exists.
func NewEngine(cfg Config, reader fleet.Reader, writer fleet.StatusWriter, notifier fleet.Notifier, sink feedback.Sink, predictor Predictor, logger *zap.Logger) *Engine {
	if cfg.EvaluateInterval <= 0 {
		cfg.EvaluateInterval = 30 * time.Second
	}
	if cfg.ExecuteInterval <= 0 {
		cfg.ExecuteInterval = 10 * time.Second
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.75
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		reader:    reader,
		writer:    writer,
		notifier:  notifier,
		sink:      sink,
		predictor: predictor,
		active:    make(map[string]*Decision),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// SetScheduleTrigger attaches the scheduler. Call before Start.
func (e *Engine) SetScheduleTrigger(t ScheduleTrigger) {
	e.trigger = t
}

// Start launches the evaluator and executor loops. They run until the
// context is cancelled; Wait blocks until both have exited.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(2)
	go e.loop(ctx, e.cfg.EvaluateInterval, func(c context.Context) {
		if err := e.EvaluateOnce(c); err != nil {
			e.logger.Warn("decision evaluation failed", zap.Error(err))
		}
	})
	go e.loop(ctx, e.cfg.ExecuteInterval, func(c context.Context) {
		e.ExecuteReady(c)
	})
}

// Wait blocks until the loops have exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// loop runs tick on every interval. Ticks are non-reentrant: a slow
// tick delays but never overlaps its own next invocation.
func (e *Engine) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer e.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// EvaluateOnce runs all four rules against the current fleet snapshot
// and admits resulting decisions into the active set.
func (e *Engine) EvaluateOnce(ctx context.Context) error {
	snapshot, err := e.reader.Snapshot(ctx)
	if err != nil {
		return err
	}
	now := e.now()

	var produced []Decision
	produced = append(produced, e.scheduleOptimizationRule(now, snapshot)...)
	produced = append(produced, e.maintenanceRule(now, snapshot)...)
	produced = append(produced, e.emergencyRule(now, snapshot)...)
	produced = append(produced, e.cleaningRule(now, snapshot)...)

	if len(produced) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range produced {
		d := produced[i]
		e.active[d.ID] = &d
		e.logger.Info("decision created",
			zap.String("id", d.ID),
			zap.String("type", string(d.Type)),
			zap.String("urgency", string(d.Urgency)),
			zap.Strings("trainsets", d.TrainsetIDs),
			zap.Bool("requires_approval", d.RequiresApproval))
	}
	return nil
}

// Approve marks a pending decision as approved by the given actor.
func (e *Engine) Approve(id, actor string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.active[id]
	if !ok {
		return false
	}
	d.Approved = true
	d.ApprovedBy = actor
	e.logger.Info("decision approved", zap.String("id", id), zap.String("actor", actor))
	return true
}

// Active returns a snapshot of the active decisions.
func (e *Engine) Active() []Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Decision, 0, len(e.active))
	for _, d := range e.active {
		out = append(out, *d)
	}
	return out
}

// History returns a snapshot of the outcome ring, newest last.
func (e *Engine) History() []Outcome {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Outcome, len(e.history))
	copy(out, e.history)
	return out
}

// Summarize aggregates current engine state for the read model.
func (e *Engine) Summarize() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Summary{
		Active:      len(e.active),
		ByType:      make(map[Type]int),
		ByUrgency:   make(map[Urgency]int),
		HistorySize: len(e.history),
	}
	for _, d := range e.active {
		s.ByType[d.Type]++
		s.ByUrgency[d.Urgency]++
		if d.RequiresApproval && !d.Approved {
			s.AwaitingApproval++
		}
	}
	successes := 0
	for _, o := range e.history {
		if o.Success {
			successes++
		}
	}
	if len(e.history) > 0 {
		s.RecentSuccess = float64(successes) / float64(len(e.history))
	}
	return s
}

// hasActive reports whether an active decision of the given type
// already covers the trainset. An empty id matches any decision of the
// type. Callers hold no lock.
func (e *Engine) hasActive(t Type, trainsetID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, d := range e.active {
		if d.Type != t {
			continue
		}
		if trainsetID == "" {
			return true
		}
		for _, id := range d.TrainsetIDs {
			if id == trainsetID {
				return true
			}
		}
	}
	return false
}

// finalize stamps identity and applies the autonomy ceiling. Emergency
// decisions never require approval regardless of size.
func (e *Engine) finalize(d Decision) Decision {
	d.ID = e.newID()
	d.CreatedAt = e.now()
	if d.Type != TypeEmergencyResponse &&
		e.cfg.MaxAutonomousTrainsets > 0 &&
		len(d.TrainsetIDs) > e.cfg.MaxAutonomousTrainsets {
		d.RequiresApproval = true
	}
	return d
}

func (e *Engine) deadline(after time.Duration) *time.Time {
	t := e.now().Add(after)
	return &t
}
