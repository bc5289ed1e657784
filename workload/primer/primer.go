// Package primer seeds a freshly bootstrapped database with the initial
// users, stories and comments measured traffic will reference. Seeding
// goes through the regular page handlers with the priming flag set, so
// the seeded rows take the exact shape the write paths produce.
package primer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/pgengine"
)

// Content volumes for a scale factor of 1.0.
const (
	baseUsers    = 9000
	baseStories  = 20000
	baseComments = 50000
)

// Probability that a seeded comment replies to an earlier comment on
// the same story instead of the story itself.
const replyProbability = 0.3

// Config describes the content volume to seed. The zero value is not
// usable; start from FromScale.
type Config struct {
	Users    uint32
	Stories  uint32
	Comments uint32

	// Concurrency bounds the number of in-flight seeding requests.
	Concurrency int
}

// FromScale derives content volumes from a load scale factor. Volumes
// never round down to zero; listing pages assert on seeded content.
func FromScale(scale float64) Config {
	return Config{
		Users:       atLeastOne(baseUsers * scale),
		Stories:     atLeastOne(baseStories * scale),
		Comments:    atLeastOne(baseComments * scale),
		Concurrency: 16,
	}
}

func atLeastOne(v float64) uint32 {
	if v < 1 {
		return 1
	}
	return uint32(math.Round(v))
}

// StoryID returns the short id of the n-th seeded story.
func (c Config) StoryID(n uint32) workload.ShortID {
	return EncodeShortID(n)
}

// CommentID returns the short id of the n-th seeded comment.
func (c Config) CommentID(n uint32) workload.ShortID {
	return EncodeShortID(n)
}

// storyFor assigns seeded comments to stories round-robin.
func (c Config) storyFor(comment uint32) uint32 {
	return comment % c.Stories
}

// EncodeShortID converts a numeric id into the six-character base-36
// slug used as the external story/comment identifier.
func EncodeShortID(id uint32) workload.ShortID {
	var slug [6]byte
	for i := len(slug) - 1; i >= 0; i-- {
		digit := byte(id % 36)
		if digit < 10 {
			slug[i] = '0' + digit
		} else {
			slug[i] = 'a' + digit - 10
		}
		id /= 36
	}

	return workload.ShortID(slug[:])
}

// Primer seeds content through an engine.
type Primer struct {
	engine *pgengine.Engine
	cfg    Config
	rng    *rand.Rand
	logger workload.Logger
}

// New creates a Primer. The rng drives user sampling and reply
// placement; pass a deterministically seeded one for reproducible
// content. A nil logger disables progress logging.
func New(engine *pgengine.Engine, cfg Config, rng *rand.Rand, logger workload.Logger) *Primer {
	return &Primer{engine: engine, cfg: cfg, rng: rng, logger: logger}
}

// Run seeds users, then stories, then comments, in that order so every
// referenced row exists before its referrer. Within each stage requests
// run concurrently up to cfg.Concurrency.
func (p *Primer) Run(ctx context.Context) error {
	start := time.Now()

	if err := p.stage(ctx, "users", p.userRequests()); err != nil {
		return fmt.Errorf("priming users: %w", err)
	}
	if err := p.stage(ctx, "stories", p.storyRequests()); err != nil {
		return fmt.Errorf("priming stories: %w", err)
	}
	if err := p.stage(ctx, "comments", p.commentRequests()); err != nil {
		return fmt.Errorf("priming comments: %w", err)
	}

	if p.logger != nil {
		p.logger.Info("priming finished",
			"users", p.cfg.Users,
			"stories", p.cfg.Stories,
			"comments", p.cfg.Comments,
			"duration", time.Since(start).String())
	}

	return nil
}

func (p *Primer) userRequests() []workload.Request {
	reqs := make([]workload.Request, 0, p.cfg.Users)
	for uid := uint32(0); uid < p.cfg.Users; uid++ {
		acting := workload.UserID(uid)
		reqs = append(reqs, workload.Request{
			ActingAs: &acting,
			Page:     workload.PageLogin,
			Priming:  true,
		})
	}

	return reqs
}

func (p *Primer) storyRequests() []workload.Request {
	reqs := make([]workload.Request, 0, p.cfg.Stories)
	for id := uint32(0); id < p.cfg.Stories; id++ {
		acting := p.sampleUser()
		reqs = append(reqs, workload.Request{
			ActingAs: &acting,
			Page:     workload.PageSubmit,
			Priming:  true,
			Story:    p.cfg.StoryID(id),
			Title:    fmt.Sprintf("Base article %d", id),
		})
	}

	return reqs
}

func (p *Primer) commentRequests() []workload.Request {
	reqs := make([]workload.Request, 0, p.cfg.Comments)
	for id := uint32(0); id < p.cfg.Comments; id++ {
		acting := p.sampleUser()
		req := workload.Request{
			ActingAs: &acting,
			Page:     workload.PageComment,
			Priming:  true,
			Comment:  p.cfg.CommentID(id),
			Story:    p.cfg.StoryID(p.cfg.storyFor(id)),
		}

		// An earlier comment landed on the same story iff the id is at
		// least one full round-robin lap in.
		if id >= p.cfg.Stories && p.rng.Float64() < replyProbability {
			parent := p.cfg.CommentID(id - p.cfg.Stories)
			req.Parent = &parent
		}

		reqs = append(reqs, req)
	}

	return reqs
}

func (p *Primer) sampleUser() workload.UserID {
	return workload.UserID(p.rng.Intn(int(p.cfg.Users)))
}

// stage executes one batch of seeding requests with bounded
// concurrency, failing fast on the first error.
func (p *Primer) stage(ctx context.Context, name string, reqs []workload.Request) error {
	if p.logger != nil {
		p.logger.Info("priming stage starting", "stage", name, "requests", len(reqs))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())

	for _, req := range reqs {
		g.Go(func() error {
			conn, err := p.admit(ctx)
			if err != nil {
				return err
			}

			return p.engine.Execute(ctx, conn, req)
		})
	}

	return g.Wait()
}

func (p *Primer) concurrency() int {
	if p.cfg.Concurrency <= 0 {
		return 1
	}
	return p.cfg.Concurrency
}

// admit spins a fresh admission gate until the checkout completes.
// Seeding has no scheduler to yield to, so a short sleep stands in for
// the run loop's pacing.
func (p *Primer) admit(ctx context.Context) (pgengine.Conn, error) {
	admission := p.engine.NewAdmission()
	for {
		state, err := admission.TryAdmit(ctx)
		if err != nil {
			return pgengine.Conn{}, err
		}
		if state == pgengine.Ready {
			return admission.TakeConn(), nil
		}

		select {
		case <-ctx.Done():
			admission.Abandon()
			return pgengine.Conn{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
