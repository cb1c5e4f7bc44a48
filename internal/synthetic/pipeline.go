package synthetic

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	apierrors "github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/metrics"
	"github.com/threadfit/backend/internal/models"
	"github.com/threadfit/backend/internal/telemetry"
	"go.uber.org/zap"
)

// Request describes one generation run.
type Request struct {
	Action Action
	Amount int

	// OwnerID is the principal the batch belongs to.
	OwnerID string
	// UserID owns generated posts and comments. Defaults to OwnerID.
	UserID string
	// PostID is the post generated comments reply to. Required for comments.
	PostID string
	// BatchID reuses an existing batch owned by OwnerID instead of minting one.
	BatchID string

	Seed  *int64
	Speed float64

	// OnBatch, when set, is called once the run's batch is known, before any item.
	OnBatch func(*models.Batch)
}

// Validate checks the request before any side effect happens.
func (r *Request) Validate() error {
	if !r.Action.Valid() {
		return apierrors.ValidationError("action", "unknown action").Wrap(ErrUnknownAction)
	}
	if r.Amount < 0 {
		return apierrors.ValidationError("amount", "amount must be zero or greater")
	}
	if r.OwnerID == "" {
		return apierrors.ValidationError("owner_id", "owner is required")
	}
	if r.Action == ActionGenerateComments && r.PostID == "" {
		return apierrors.ValidationError("post_id", "post_id is required to generate comments")
	}
	return nil
}

// Result is one persisted entity, numbered from 1 within its run.
type Result struct {
	Index   int
	BatchID string
	Entity  models.Entity
}

// Options tunes a Pipeline.
type Options struct {
	// MinDelay is the pacing floor; zero means DefaultMinDelay.
	MinDelay time.Duration
	// IsolateSeededRuns gives each seeded run a private Faker, so it neither
	// disturbs nor observes other runs. Unseeded runs always share.
	IsolateSeededRuns bool
}

// Generator produces the lazy result sequence of one run.
type Generator interface {
	Run(ctx context.Context, req Request) iter.Seq2[*Result, error]
}

var _ Generator = (*Pipeline)(nil)

// Pipeline turns generation requests into paced, persisted entities.
type Pipeline struct {
	gateway Gateway
	faker   *Faker
	opts    Options
	events  *telemetry.BusinessEvents
	metrics *metrics.Metrics
}

// NewPipeline wires a pipeline. A nil faker gets a randomly seeded one.
func NewPipeline(gateway Gateway, faker *Faker, opts Options) *Pipeline {
	if faker == nil {
		faker = NewFaker(nil)
	}
	if opts.MinDelay <= 0 {
		opts.MinDelay = DefaultMinDelay
	}
	return &Pipeline{
		gateway: gateway,
		faker:   faker,
		opts:    opts,
		events:  telemetry.NewBusinessEvents(),
		metrics: metrics.Get(),
	}
}

// Run returns the lazy sequence of a generation run. Nothing happens until
// the sequence is ranged over, and each iteration starts a fresh run.
//
// The sequence yields one Result per persisted entity, in creation order.
// On failure it yields a single (nil, err) pair and ends: validation and
// batch errors before any item, entity errors after the items that
// succeeded. Cancelling ctx stops the run before the next persistence call
// and yields ctx.Err(). A batch is minted even when Amount is zero.
func (p *Pipeline) Run(ctx context.Context, req Request) iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		action := req.Action.String()
		ctx, span := p.events.TraceGenerationRun(ctx, action, req.Amount, req.OwnerID)

		var runErr error
		produced := 0
		p.metrics.GenerationRunsInProgress.WithLabelValues(action).Inc()
		defer func() {
			p.metrics.GenerationRunsInProgress.WithLabelValues(action).Dec()
			p.metrics.GenerationRunsTotal.WithLabelValues(action, outcome(runErr)).Inc()
			telemetry.EndSpan(span, runErr)
		}()

		fail := func(err error) {
			runErr = err
			logger.Log.Warn("Generation run failed",
				logger.WithAction(action),
				logger.WithUserID(req.OwnerID),
				zap.Int("produced", produced),
				zap.Error(err),
			)
			yield(nil, err)
		}

		if err := req.Validate(); err != nil {
			fail(err)
			return
		}

		faker := p.faker
		if req.Seed != nil {
			if p.opts.IsolateSeededRuns {
				faker = NewFaker(req.Seed)
			} else {
				faker.Seed(*req.Seed)
			}
		}

		batch, err := p.resolveBatch(ctx, req)
		if err != nil {
			fail(err)
			return
		}
		if req.OnBatch != nil {
			req.OnBatch(batch)
		}

		logger.Log.Info("Generation run started",
			logger.WithAction(action),
			logger.WithUserID(req.OwnerID),
			logger.WithBatchID(batch.ID),
			zap.Int("amount", req.Amount),
		)

		pacer := NewPacer(req.Speed, p.opts.MinDelay)
		for i := 1; i <= req.Amount; i++ {
			if i > 1 {
				if err := pacer.Wait(ctx); err != nil {
					fail(err)
					return
				}
			}
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}

			entity, err := p.createOne(ctx, faker, req, batch.ID, i)
			if err != nil {
				fail(err)
				return
			}
			produced++

			if !yield(&Result{Index: i, BatchID: batch.ID, Entity: entity}, nil) {
				// Consumer stopped early; treat as a cancelled run.
				runErr = context.Canceled
				return
			}
		}

		logger.Log.Info("Generation run completed",
			logger.WithAction(action),
			logger.WithBatchID(batch.ID),
			zap.Int("produced", produced),
		)
	}
}

func (p *Pipeline) resolveBatch(ctx context.Context, req Request) (*models.Batch, error) {
	if req.BatchID == "" {
		batch, err := p.gateway.CreateBatch(ctx, req.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("create batch: %w", err)
		}
		return batch, nil
	}

	batch, err := p.gateway.FindBatch(ctx, req.BatchID)
	if err != nil {
		return nil, fmt.Errorf("find batch: %w", err)
	}
	if batch.UserID != req.OwnerID {
		// Someone else's batch is indistinguishable from a missing one.
		return nil, apierrors.NotFound("batch").Wrap(ErrBatchNotFound)
	}
	return batch, nil
}

func (p *Pipeline) createOne(ctx context.Context, faker *Faker, req Request, batchID string, index int) (models.Entity, error) {
	kind := req.Action.Kind()
	ctx, span := p.events.TraceEntityCreate(ctx, kind, index)
	start := time.Now()

	userID := req.UserID
	if userID == "" {
		userID = req.OwnerID
	}

	var entity models.Entity
	switch req.Action {
	case ActionGenerateUsers:
		entity = faker.User()
	case ActionGeneratePosts:
		entity = faker.Post(userID)
	case ActionGenerateComments:
		entity = faker.Comment(req.PostID, userID)
	default:
		err := fmt.Errorf("%w: %v", ErrUnknownAction, req.Action)
		telemetry.EndSpan(span, err)
		return nil, err
	}
	entity.SetBatch(batchID)

	err := p.gateway.CreateEntity(ctx, entity)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("create %s #%d: %w", kind, index, err)
	}

	p.metrics.GeneratedEntitiesTotal.WithLabelValues(kind).Inc()
	p.metrics.GenerationItemDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	return entity, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failed"
	}
}
