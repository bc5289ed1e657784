package pgengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
)

const (
	logMsgRequestCompleted = "request completed"
	logMsgRequestFailed    = "request failed"
	logMsgPoolClosed       = "request dropped during pool shutdown"
	logAttrError           = "error"
	logAttrPage            = "page"
	logAttrVariant         = "variant"
	logAttrDurationMS      = "duration_ms"
	metricRequestDuration  = "workload_request_duration"
	metricRequestsTotal    = "workload_requests_total"
	metricFailuresTotal    = "workload_request_failures_total"
	labelPage              = "page"
	labelVariant           = "variant"
	labelOutcome           = "outcome"
)

// Conn is a connection checked out through an Admission. It is opaque to
// callers; hand it to Engine.Execute, which releases it on every exit
// path, or Release it unused when the run ends before a request could be
// assigned.
type Conn struct {
	c adapters.Conn
}

// Release returns an unused connection to the pool. Execute releases on
// its own, so a connection goes through exactly one of the two paths.
func (c Conn) Release() {
	if c.c != nil {
		c.c.Release()
	}
}

// Engine replays page requests of one query variant against a bounded
// connection pool. It holds no per-request state; all entity state lives
// in the database and is re-read on every request.
type Engine struct {
	pool    adapters.Pool
	variant Variant
	ddl     string
	logger  workload.Logger
	metrics workload.MetricsCollector
}

// NewFromPGXPool creates an Engine replaying through a pgx pool. The
// pool's MaxConns should equal the intended in-flight request limit.
func NewFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Engine, error) {
	if pool == nil {
		return nil, workload.ErrNilPool
	}

	return newEngine(adapters.NewPGXPool(pool), options...)
}

// NewFromSQLX creates an Engine replaying through a database/sql pool via
// sqlx. SetMaxOpenConns on the db should equal the in-flight limit.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, workload.ErrNilPool
	}

	return newEngine(adapters.NewSQLXPool(db), options...)
}

func newEngine(pool adapters.Pool, options ...Option) (*Engine, error) {
	e := &Engine{pool: pool}

	cfg := engineConfig{variantName: defaultVariantName}
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	e.logger = cfg.logger
	e.metrics = cfg.metrics

	variant, ddl, err := variantByName(cfg.variantName, cfg.logger)
	if err != nil {
		return nil, err
	}

	e.variant = variant
	e.ddl = ddl

	return e, nil
}

// Variant returns the name of the active query variant.
func (e *Engine) Variant() string {
	return e.variant.Name()
}

// Close shuts the underlying pool down. Workers blocked in a checkout
// observe workload.ErrPoolClosed and treat it as the end of the run.
func (e *Engine) Close() {
	e.pool.Close()
}

// Execute routes one request to the active variant's handler on the given
// connection, conditionally follows up with the notifications fetch, and
// returns the connection to the pool on every exit path. A failure caused
// by the pool being shut down underneath an in-flight request is
// downgraded to success: it only means the run ended while requests were
// still outstanding.
func (e *Engine) Execute(ctx context.Context, conn Conn, req workload.Request) error {
	defer conn.c.Release()

	start := time.Now()
	err := e.run(ctx, conn.c, req)
	duration := time.Since(start)

	if err != nil && errors.Is(err, workload.ErrPoolClosed) {
		e.log(func(l workload.Logger) { l.Debug(logMsgPoolClosed, logAttrPage, req.Page.String()) })
		err = nil
	}

	e.record(req.Page, duration, err)

	return err
}

func (e *Engine) run(ctx context.Context, c adapters.Conn, req workload.Request) error {
	needsNotifications, err := e.dispatch(ctx, c, req)
	if err != nil {
		return err
	}

	if needsNotifications && req.ActingAs != nil && !req.Priming {
		return e.variant.Notifications(ctx, c, *req.ActingAs)
	}

	return nil
}

func (e *Engine) dispatch(ctx context.Context, c adapters.Conn, req workload.Request) (bool, error) {
	switch req.Page {
	case workload.PageFrontpage:
		return e.variant.Frontpage(ctx, c, req.ActingAs)
	case workload.PageRecent:
		return e.variant.Recent(ctx, c, req.ActingAs)
	case workload.PageComments:
		return e.variant.Comments(ctx, c, req.ActingAs)
	case workload.PageStory:
		return e.variant.Story(ctx, c, req.ActingAs, req.Story)
	case workload.PageUser:
		return e.variant.User(ctx, c, req.ActingAs, req.User)
	case workload.PageLogin:
		return e.variant.Login(ctx, c, mustActingAs(req))
	case workload.PageLogout:
		return e.variant.Logout(ctx, c, mustActingAs(req))
	case workload.PageStoryVote:
		return e.variant.StoryVote(ctx, c, mustActingAs(req), req.Story, req.Dir, req.Priming)
	case workload.PageCommentVote:
		return e.variant.CommentVote(ctx, c, mustActingAs(req), req.Comment, req.Dir, req.Priming)
	case workload.PageSubmit:
		return e.variant.Submit(ctx, c, mustActingAs(req), req.Story, req.Title, req.Priming)
	case workload.PageComment:
		return e.variant.Comment(ctx, c, mustActingAs(req), req.Comment, req.Story, req.Parent, req.Priming)
	default:
		panic(fmt.Sprintf("unhandled page kind %v", req.Page))
	}
}

// mustActingAs guards the pages that only exist for logged-in users; a
// request without an acting user there is a defect in the generator, not
// a runtime condition.
func mustActingAs(req workload.Request) workload.UserID {
	if req.ActingAs == nil {
		panic(fmt.Sprintf("%s request without an acting user", req.Page))
	}

	return *req.ActingAs
}

func (e *Engine) log(fn func(workload.Logger)) {
	if e.logger != nil {
		fn(e.logger)
	}
}

func (e *Engine) record(page workload.PageKind, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		e.log(func(l workload.Logger) {
			l.Error(logMsgRequestFailed,
				logAttrPage, page.String(),
				logAttrVariant, e.variant.Name(),
				logAttrError, err.Error())
		})
	} else {
		e.log(func(l workload.Logger) {
			l.Debug(logMsgRequestCompleted,
				logAttrPage, page.String(),
				logAttrVariant, e.variant.Name(),
				logAttrDurationMS, float64(duration.Microseconds())/1000.0)
		})
	}

	if e.metrics == nil {
		return
	}

	labels := map[string]string{
		labelPage:    page.String(),
		labelVariant: e.variant.Name(),
	}
	e.metrics.RecordDuration(metricRequestDuration, duration, labels)

	counted := map[string]string{
		labelPage:    page.String(),
		labelVariant: e.variant.Name(),
		labelOutcome: outcome,
	}
	e.metrics.IncrementCounter(metricRequestsTotal, counted)
	if err != nil {
		e.metrics.IncrementCounter(metricFailuresTotal, counted)
	}
}
