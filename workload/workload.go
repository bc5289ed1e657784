// Package workload defines the request model shared by all lobsterload
// engine variants: the page kinds a Lobsters-style frontend serves, the
// identifiers used to address users, stories and comments, and the
// synthetic content constants the write paths insert.
package workload

import "fmt"

// UserID identifies a user row. Usernames are derived from it as "user<N>".
type UserID uint32

// ShortID is the external six-character identifier of a story or comment.
// The database resolves it to the numeric primary key on every access.
type ShortID string

// Username returns the synthetic username for a user id.
func (u UserID) Username() string {
	return fmt.Sprintf("user%d", u)
}

// VoteDir is the direction of a story or comment vote.
type VoteDir int

const (
	VoteUp VoteDir = iota
	VoteDown
)

// Delta returns the karma / hotness contribution of the vote: +1 or -1.
func (v VoteDir) Delta() int {
	if v == VoteUp {
		return 1
	}
	return -1
}

// VoteValue returns the value stored in the votes.vote column: 1 for an
// upvote, 0 for a downvote.
func (v VoteDir) VoteValue() int {
	if v == VoteUp {
		return 1
	}
	return 0
}

// PageKind enumerates the page/action types the driver can replay.
type PageKind int

const (
	PageFrontpage PageKind = iota
	PageRecent
	PageComments
	PageStory
	PageUser
	PageLogin
	PageLogout
	PageStoryVote
	PageCommentVote
	PageSubmit
	PageComment
)

var pageKindNames = map[PageKind]string{
	PageFrontpage:   "frontpage",
	PageRecent:      "recent",
	PageComments:    "comments",
	PageStory:       "story",
	PageUser:        "user",
	PageLogin:       "login",
	PageLogout:      "logout",
	PageStoryVote:   "story_vote",
	PageCommentVote: "comment_vote",
	PageSubmit:      "submit",
	PageComment:     "comment",
}

func (k PageKind) String() string {
	if name, ok := pageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("page_kind(%d)", int(k))
}

// PageKinds lists every page kind, in replay-mix order.
func PageKinds() []PageKind {
	return []PageKind{
		PageFrontpage, PageRecent, PageComments, PageStory, PageUser,
		PageLogin, PageLogout, PageStoryVote, PageCommentVote,
		PageSubmit, PageComment,
	}
}

// Request is one logical page request produced by the workload generator.
// Only the payload fields matching Page are meaningful.
type Request struct {
	// ActingAs is the logged-in user issuing the request, nil for an
	// anonymous visitor.
	ActingAs *UserID

	// Page selects the handler.
	Page PageKind

	// Priming marks the one-time database seeding phase. Several handler
	// side effects (availability checks, the hotness double-write, the
	// extra read round-trips) are skipped while priming.
	Priming bool

	// Story is the story short id for PageStory, PageStoryVote,
	// PageSubmit and PageComment (the enclosing story).
	Story ShortID

	// Comment is the comment short id for PageCommentVote and the id of
	// the new comment for PageComment.
	Comment ShortID

	// Parent is the optional parent comment short id for PageComment.
	Parent *ShortID

	// User is the profile being viewed for PageUser.
	User UserID

	// Title is the story title for PageSubmit.
	Title string

	// Dir is the vote direction for PageStoryVote and PageCommentVote.
	Dir VoteDir
}
