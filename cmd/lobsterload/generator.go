package main

import (
	"math/rand"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/primer"
)

// Relative page popularity, out of 100000 issued requests. Read-heavy,
// dominated by story and frontpage views, with writes in the low
// permille range, approximating the page-view shares of a production
// Lobsters-style site.
var pageWeights = []struct {
	page   workload.PageKind
	weight int
}{
	{workload.PageStory, 55842},
	{workload.PageFrontpage, 30105},
	{workload.PageUser, 6702},
	{workload.PageComments, 4674},
	{workload.PageRecent, 2290},
	{workload.PageLogin, 142},
	{workload.PageStoryVote, 108},
	{workload.PageCommentVote, 60},
	{workload.PageLogout, 40},
	{workload.PageSubmit, 22},
	{workload.PageComment, 15},
}

const weightTotal = 100000

// Share of requests issued by a logged-in user rather than an
// anonymous visitor.
const loggedInShare = 0.7

// generator produces the randomized request stream for the measured
// run. It owns its rng and is driven from a single goroutine.
type generator struct {
	rng *rand.Rand
	cfg primer.Config

	// nextStory and nextComment allocate short ids for content created
	// during the run, continuing past the seeded ranges.
	nextStory   uint32
	nextComment uint32
}

func newGenerator(rng *rand.Rand, seeded primer.Config) *generator {
	return &generator{
		rng:         rng,
		cfg:         seeded,
		nextStory:   seeded.Stories,
		nextComment: seeded.Comments,
	}
}

func (g *generator) pickPage() workload.PageKind {
	roll := g.rng.Intn(weightTotal)
	for _, w := range pageWeights {
		if roll < w.weight {
			return w.page
		}
		roll -= w.weight
	}

	return workload.PageFrontpage
}

func (g *generator) sampleUser() workload.UserID {
	return workload.UserID(g.rng.Intn(int(g.cfg.Users)))
}

// sampleStory and sampleComment target seeded content only. Content
// created during the run is raced by in-flight requests, and a read of
// a not-yet-inserted row is a fatal data-integrity fault.
func (g *generator) sampleStory() workload.ShortID {
	return g.cfg.StoryID(uint32(g.rng.Intn(int(g.cfg.Stories))))
}

func (g *generator) sampleComment() workload.ShortID {
	return g.cfg.CommentID(uint32(g.rng.Intn(int(g.cfg.Comments))))
}

func (g *generator) sampleDir() workload.VoteDir {
	if g.rng.Float64() < 0.5 {
		return workload.VoteDown
	}
	return workload.VoteUp
}

// next builds one request. Pages that require a logged-in user always
// get one; listing pages are anonymous part of the time.
func (g *generator) next() workload.Request {
	page := g.pickPage()

	req := workload.Request{Page: page}

	needsUser := true
	switch page {
	case workload.PageFrontpage, workload.PageRecent, workload.PageComments,
		workload.PageStory, workload.PageUser:
		needsUser = g.rng.Float64() < loggedInShare
	}
	if needsUser {
		acting := g.sampleUser()
		req.ActingAs = &acting
	}

	switch page {
	case workload.PageStory:
		req.Story = g.sampleStory()

	case workload.PageUser:
		req.User = g.sampleUser()

	case workload.PageStoryVote:
		req.Story = g.sampleStory()
		req.Dir = g.sampleDir()

	case workload.PageCommentVote:
		req.Comment = g.sampleComment()
		req.Dir = g.sampleDir()

	case workload.PageSubmit:
		id := g.nextStory
		g.nextStory++
		req.Story = primer.EncodeShortID(id)
		req.Title = randomTitle(g.rng)

	case workload.PageComment:
		id := g.nextComment
		g.nextComment++
		req.Comment = primer.EncodeShortID(id)
		req.Story = g.sampleStory()
		if g.rng.Float64() < 0.3 {
			parent := g.sampleComment()
			req.Parent = &parent
		}
	}

	return req
}

const titleAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "

func randomTitle(rng *rand.Rand) string {
	title := make([]byte, 16)
	for i := range title {
		title[i] = titleAlphabet[rng.Intn(len(titleAlphabet))]
	}

	return string(title)
}
