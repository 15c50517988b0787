package models

// FollowStatus is the derived relationship between the current user and one
// target user. It is a singleton per target id in the query cache.
type FollowStatus struct {
	IsFollowing bool `json:"isFollowing"`
	FollowsYou  bool `json:"followsYou"`
	IsMutual    bool `json:"isMutual"`
}

// FollowOutcome tags the result of a follow or unfollow mutation. The
// "already applied" case covers the expected races: a 409 on follow and a
// 404 on unfollow both mean the server is already in the requested state.
type FollowOutcome int

const (
	// FollowApplied means the server accepted and applied the mutation.
	FollowApplied FollowOutcome = iota
	// FollowAlreadyApplied means the server was already in the requested
	// state; the mutation is treated as a success and no error surfaces.
	FollowAlreadyApplied
	// FollowFailed means the mutation failed for a reason that must be
	// surfaced to the caller.
	FollowFailed
)

func (o FollowOutcome) String() string {
	switch o {
	case FollowApplied:
		return "applied"
	case FollowAlreadyApplied:
		return "already-applied"
	default:
		return "failed"
	}
}

// Succeeded reports whether cached state may be patched as if the mutation
// had been acknowledged.
func (o FollowOutcome) Succeeded() bool {
	return o == FollowApplied || o == FollowAlreadyApplied
}
