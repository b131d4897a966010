package activity

import "time"

// DefaultWindowDays is the recent-activity window when the caller does not
// supply one.
const DefaultWindowDays = 21

// Member is one repository member in the activity snapshot. PendingInvite
// marks invitees who have not yet accepted.
type Member struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Commits       int    `json:"commits"`
	PendingInvite bool   `json:"pendingInvite,omitempty"`
}

// Snapshot partitions a repository's members into recently active and
// inactive. Totals count accepted collaborators and pending invites
// independently of the split.
type Snapshot struct {
	Active        []Member  `json:"active"`
	Inactive      []Member  `json:"inactive"`
	TotalAccepted int       `json:"totalAccepted"`
	TotalPending  int       `json:"totalPending"`
	WindowDays    int       `json:"windowDays"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
