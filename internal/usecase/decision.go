package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
	"CoinSense/internal/services/decision"
	applogger "CoinSense/pkg/logger"
)

// Recorder accepts decision records for persistence or publishing.
type Recorder interface {
	Record(ctx context.Context, r *models.DecisionRecord) error
}

// DecisionUseCase answers "should I buy X" for a coin query.
type DecisionUseCase struct {
	resolver  *CoinResolver
	assembler *MetricsAssembler
	engine    *decision.Engine
	recorder  Recorder
	metrics   drepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

// NewDecisionUseCase wires the flow. recorder may be nil.
func NewDecisionUseCase(
	resolver *CoinResolver,
	assembler *MetricsAssembler,
	engine *decision.Engine,
	recorder Recorder,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *DecisionUseCase {
	if log == nil {
		log = applogger.NewNop()
	}
	return &DecisionUseCase{
		resolver:  resolver,
		assembler: assembler,
		engine:    engine,
		recorder:  recorder,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Evaluate resolves query, gathers metrics and runs the engine for persona.
func (u *DecisionUseCase) Evaluate(ctx context.Context, query, persona string) (*models.CoinDecision, error) {
	start := u.now()
	coin, err := u.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	data, err := u.assembler.Assemble(ctx, coin.ID)
	if err != nil {
		return nil, err
	}

	res := u.engine.Evaluate(data.Input, persona)
	out := &models.CoinDecision{Coin: *coin, Result: res, Quote: data.Quote}

	u.metrics.RecordDecision(res.Persona, string(res.Outcome), res.Scores.Total)
	u.metrics.RecordLatency("decision", time.Since(start).Seconds())
	u.log.Info("decision evaluated",
		applogger.String("coin", coin.ID),
		applogger.String("persona", res.Persona),
		applogger.String("outcome", string(res.Outcome)),
		applogger.Float64("total", res.Scores.Total),
	)

	if u.recorder != nil {
		rec := &models.DecisionRecord{
			ID:        uuid.NewString(),
			CoinID:    coin.ID,
			Symbol:    coin.Symbol,
			Persona:   res.Persona,
			Outcome:   res.Outcome,
			Scores:    res.Scores,
			Reasoning: res.Reasoning,
			CreatedAt: u.now().UTC(),
		}
		if err := u.recorder.Record(ctx, rec); err != nil {
			u.log.Warn("decision not recorded", applogger.String("coin", coin.ID), applogger.Error(err))
		} else {
			out.RecordID = rec.ID
		}
	}
	return out, nil
}

// Decide is Evaluate rendered as a chat reply.
func (u *DecisionUseCase) Decide(ctx context.Context, query, persona string) (*models.Reply, error) {
	d, err := u.Evaluate(ctx, query, persona)
	if err != nil {
		return nil, err
	}
	return &models.Reply{
		Action:  models.ActionDecision,
		Text:    FormatDecision(d.Result),
		Content: d,
	}, nil
}

// FormatDecision renders "Decision: X" followed by the reasoning.
func FormatDecision(r models.DecisionResult) string {
	return fmt.Sprintf("Decision: %s\n\nReasoning: %s", r.Outcome.Label(), r.Reasoning)
}

// IsUserError reports whether err is caused by the request rather than the system.
func IsUserError(err error) bool {
	return errors.Is(err, ErrCoinNotFound) || errors.Is(err, ErrUnknownIntent)
}
