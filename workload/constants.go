package workload

// Synthetic content written by the benchmark's mutation handlers. These are
// deliberately fixed so that repeated runs produce identical row payloads;
// they are named here instead of being buried in query text so the replayed
// workload stays auditable.
const (
	// SyntheticCommentBody is the body of every benchmark comment.
	SyntheticCommentBody = "moar benchmarking"

	// SyntheticCommentMarkdown is the pre-rendered markdown of the body.
	SyntheticCommentMarkdown = "<p>moar benchmarking</p>\n"

	// SyntheticStoryBody is the description of every submitted story.
	SyntheticStoryBody = "to infinity"

	// SyntheticStoryMarkdown is the pre-rendered story description.
	SyntheticStoryMarkdown = "<p>to infinity</p>\n"

	// CommentConfidenceSeed is the confidence every new comment starts
	// with. The production algorithm derives it from a Wilson score; the
	// replay only needs a stable constant.
	CommentConfidenceSeed = 0.1828847834138887

	// StoryHotnessSeed is the hotness a freshly submitted story gets.
	StoryHotnessSeed = -19216.2884921

	// StoryHotnessResubmit is the second hotness value written at the end
	// of a non-priming submit. The production site recomputes hotness
	// after the self-vote lands; the replay reproduces the double write
	// with a second fixed constant.
	StoryHotnessResubmit = -19216.5479744

	// HotnessUnit is the amount a story's hotness moves per vote under
	// the simplified ranking formula (hotness' = hotness - sign(vote)).
	// Only relative ordering matters for the frontpage.
	HotnessUnit = 1.0

	// SubmitTag is the single pre-seeded tag every story is submitted
	// under. It must exist and be active in the schema asset.
	SubmitTag = "test"

	// FrontpageStoryWindow caps the frontpage and /recent listings.
	FrontpageStoryWindow = 51

	// CommentListWindow caps the /comments listing.
	CommentListWindow = 40
)

// Keystore key formats for the per-user activity counters.
const (
	KeyStoriesSubmitted = "user:%d:stories_submitted"
	KeyCommentsPosted   = "user:%d:comments_posted"
	KeyUnreadMessages   = "user:%d:unread_messages"
)
