package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/primer"
)

func Test_PageWeights_SumToWeightTotal(t *testing.T) {
	sum := 0
	for _, w := range pageWeights {
		assert.Positive(t, w.weight)
		sum += w.weight
	}
	assert.Equal(t, weightTotal, sum)
}

func Test_Generator_PayloadsMatchPageKind(t *testing.T) {
	seeded := primer.Config{Users: 100, Stories: 50, Comments: 200}
	gen := newGenerator(rand.New(rand.NewSource(7)), seeded)

	seen := map[workload.PageKind]int{}
	for i := 0; i < 20000; i++ {
		req := gen.next()
		seen[req.Page]++

		switch req.Page {
		case workload.PageStory, workload.PageStoryVote:
			assert.NotEmpty(t, req.Story)

		case workload.PageCommentVote:
			assert.NotEmpty(t, req.Comment)

		case workload.PageSubmit:
			require.NotNil(t, req.ActingAs)
			assert.NotEmpty(t, req.Story)
			assert.NotEmpty(t, req.Title)

		case workload.PageComment:
			require.NotNil(t, req.ActingAs)
			assert.NotEmpty(t, req.Comment)
			assert.NotEmpty(t, req.Story)

		case workload.PageLogin, workload.PageLogout:
			require.NotNil(t, req.ActingAs)
		}
	}

	// the dominant read pages must dominate the sample
	assert.Greater(t, seen[workload.PageStory], seen[workload.PageFrontpage])
	assert.Greater(t, seen[workload.PageFrontpage], seen[workload.PageUser])
}

func Test_Generator_NewContentGetsFreshShortIDs(t *testing.T) {
	seeded := primer.Config{Users: 10, Stories: 5, Comments: 5}
	gen := newGenerator(rand.New(rand.NewSource(7)), seeded)

	submitted := map[workload.ShortID]struct{}{}
	for i := 0; i < 50000; i++ {
		req := gen.next()
		if req.Page != workload.PageSubmit {
			continue
		}

		_, dup := submitted[req.Story]
		require.False(t, dup, "submit short ids must never repeat")
		submitted[req.Story] = struct{}{}

		// fresh ids continue past the seeded range
		assert.NotEqual(t, primer.EncodeShortID(0), req.Story)
	}
	assert.NotEmpty(t, submitted)
}

func Test_Generator_TargetsSeededContentOnly(t *testing.T) {
	seeded := primer.Config{Users: 10, Stories: 5, Comments: 7}
	gen := newGenerator(rand.New(rand.NewSource(7)), seeded)

	valid := map[workload.ShortID]struct{}{}
	for i := uint32(0); i < seeded.Stories; i++ {
		valid[seeded.StoryID(i)] = struct{}{}
	}

	for i := 0; i < 20000; i++ {
		req := gen.next()
		if req.Page == workload.PageStory || req.Page == workload.PageStoryVote {
			_, ok := valid[req.Story]
			require.True(t, ok, "read/vote targets must come from the seeded range")
		}
	}
}
