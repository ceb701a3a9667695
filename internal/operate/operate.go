package operate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/metrics"
)

// ErrNoCard is returned when no card reached sensor 1 within the poll budget.
var ErrNoCard = errors.New("operate: no card at sensor 1")

// Dispenser is the subset of *k720.Device the loop drives
type Dispenser interface {
	Reset() ([]byte, error)
	MoveCard(p k720.Position) ([]byte, error)
	State() (k720.SensorState, error)
	S50GetCardID() ([]byte, error)
}

// Card is one card handled by a cycle
type Card struct {
	CycleID string
	Reply   k720.CardReply
}

// Config controls a Runner
type Config struct {
	Limiter      *rate.Limiter // paces every poll and every retry
	PollAttempts int           // sensor polls per cycle before giving up
	MaxCycles    int           // 0 runs until the context ends
	Metrics      *metrics.TransactionMetrics
	Logger       *zap.Logger
	OnCard       func(Card)
}

// Runner repeats the card-handling cycle: present the card at the outside
// position, wait for it at sensor 1 (nudging it in through the front and to
// the read position meanwhile), read its S50 id and move it to the take
// position.
type Runner struct {
	dev    Dispenser
	cfg    Config
	log    *zap.Logger
	newID  func() string
	cycles int
}

func NewRunner(dev Dispenser, cfg Config) (*Runner, error) {
	if dev == nil {
		return nil, errors.New("operate: nil dispenser")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("operate: nil limiter")
	}
	if cfg.PollAttempts < 1 {
		return nil, fmt.Errorf("operate: poll attempts must be at least 1, got %d", cfg.PollAttempts)
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Runner{
		dev:   dev,
		cfg:   cfg,
		log:   l.Named("operate"),
		newID: uuid.NewString,
	}, nil
}

// Cycles returns the number of completed cycles
func (r *Runner) Cycles() int {
	return r.cycles
}

// Run resets the dispenser and loops until ctx is done or MaxCycles cycles
// have completed. A failed cycle is logged, the dispenser reset, and the
// loop continues at the limiter's pace.
func (r *Runner) Run(ctx context.Context) error {
	needReset := true
	for r.cfg.MaxCycles == 0 || r.cycles < r.cfg.MaxCycles {
		if err := r.cfg.Limiter.Wait(ctx); err != nil {
			// the limiter refuses waits past the context deadline
			if _, ok := ctx.Deadline(); ok || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if needReset {
			if _, err := r.dev.Reset(); err != nil {
				r.log.Warn("reset failed", zap.Error(err))
				continue
			}
			needReset = false
		}

		id := r.newID()
		card, err := r.Cycle(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Warn("cycle failed", zap.String("cycle", id), zap.Error(err))
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.CycleFailures.Inc()
			}
			needReset = true
			continue
		}

		r.cycles++
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.CardsDispensed.Inc()
		}
		if r.cfg.OnCard != nil {
			r.cfg.OnCard(card)
		}
	}
	return nil
}

// Cycle runs one card through the dispenser
func (r *Runner) Cycle(ctx context.Context, id string) (Card, error) {
	log := r.log.With(zap.String("cycle", id))
	card := Card{CycleID: id}

	if _, err := r.dev.MoveCard(k720.PositionOutside); err != nil {
		return card, fmt.Errorf("move to outside: %w", err)
	}

	if err := r.waitForCard(ctx); err != nil {
		return card, err
	}

	data, err := r.dev.S50GetCardID()
	if err != nil {
		return card, fmt.Errorf("read card id: %w", err)
	}
	reply, err := k720.ParseCardReply(data)
	if err != nil {
		return card, err
	}
	card.Reply = reply
	if reply.OK {
		log.Info("card read", zap.String("card", fmt.Sprintf("%X", reply.CardID)))
	} else {
		log.Info("card not readable", zap.String("status", string(reply.Status)))
	}

	if _, err := r.dev.MoveCard(k720.PositionTakeCard); err != nil {
		return card, fmt.Errorf("move to take: %w", err)
	}
	return card, nil
}

func (r *Runner) waitForCard(ctx context.Context) error {
	for attempt := 0; attempt < r.cfg.PollAttempts; attempt++ {
		if attempt > 0 {
			if err := r.cfg.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		state, err := r.dev.State()
		if err != nil {
			return fmt.Errorf("sensor query: %w", err)
		}
		if state.Has(k720.CardAtSensor1) {
			return nil
		}

		if _, err := r.dev.MoveCard(k720.PositionFrontEnter); err != nil {
			return fmt.Errorf("move to front-enter: %w", err)
		}
		if _, err := r.dev.MoveCard(k720.PositionRead); err != nil {
			return fmt.Errorf("move to read: %w", err)
		}
	}
	return fmt.Errorf("%w after %d polls", ErrNoCard, r.cfg.PollAttempts)
}
