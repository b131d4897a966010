package vcs

import (
	"context"
	"time"
)

// Account represents an account on the external platform.
type Account struct {
	ID        int64
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

// Repository represents a repository on the external platform.
type Repository struct {
	ID            int64
	Owner         string
	Name          string
	FullName      string
	Private       bool
	DefaultBranch string
	HTMLURL       string
	CloneURL      string
}

// Branch represents a branch head.
type Branch struct {
	Name string
	SHA  string
}

// Comparison represents a base...head comparison.
type Comparison struct {
	Status       string // identical, ahead, behind, diverged
	AheadBy      int
	BehindBy     int
	TotalCommits int
}

// ComparisonIdentical is the comparison status for branches with no
// commits between them.
const ComparisonIdentical = "identical"

// NewPullRequest describes a pull request to be opened.
type NewPullRequest struct {
	Title               string
	Head                string
	Base                string
	Body                string
	MaintainerCanModify bool
}

// PullRequestRef points at one side of a pull request.
type PullRequestRef struct {
	Ref  string
	SHA  string
	Repo string
}

// PullRequest represents an opened pull request.
type PullRequest struct {
	Number       int
	Title        string
	Body         string
	State        string
	HTMLURL      string
	User         string
	Head         PullRequestRef
	Base         PullRequestRef
	Mergeable    *bool
	Commits      int
	Additions    int
	Deletions    int
	ChangedFiles int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contributor is an entry from the lifetime contributors listing.
type Contributor struct {
	Login         string
	AvatarURL     string
	Contributions int
}

// Commit is a single commit from the recent-commits listing. Author and
// committer logins may be empty when the platform cannot attribute the git
// identity to an account; the display names are always present.
type Commit struct {
	SHA            string
	AuthorLogin    string
	CommitterLogin string
	AuthorName     string
	CommitterName  string
}

// Collaborator is an accepted repository collaborator.
type Collaborator struct {
	Login     string
	AvatarURL string
}

// Invitation is a pending repository invitation.
type Invitation struct {
	InviteeLogin     string
	InviteeAvatarURL string
}

// CreateRepositoryRequest describes a repository to be created for the
// authenticated account.
type CreateRepositoryRequest struct {
	Name        string
	Description string
	Private     bool
	AutoInit    bool
}

// Client is the read/write surface of the external platform used by the
// integration service. Implementations bound every call with a timeout.
type Client interface {
	// User returns the account for the given username, or the
	// authenticated account when username is empty.
	User(ctx context.Context, username string) (*Account, error)

	CreateRepository(ctx context.Context, req CreateRepositoryRequest) (*Repository, error)
	AddCollaborator(ctx context.Context, owner, repo, username, permission string) error

	Repository(ctx context.Context, owner, repo string) (*Repository, error)
	Branch(ctx context.Context, owner, repo, branch string) (*Branch, error)
	CompareBranches(ctx context.Context, owner, repo, base, head string) (*Comparison, error)
	CreatePullRequest(ctx context.Context, owner, repo string, req NewPullRequest) (*PullRequest, error)

	Contributors(ctx context.Context, owner, repo string) ([]Contributor, error)
	CommitsSince(ctx context.Context, owner, repo string, since time.Time) ([]Commit, error)
	Collaborators(ctx context.Context, owner, repo string) ([]Collaborator, error)
	Invitations(ctx context.Context, owner, repo string) ([]Invitation, error)
}

// Factory builds clients bound to a specific access token. An empty token
// yields an unauthenticated client.
type Factory interface {
	ClientFor(token string) Client
}
