package vcs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gradlink/server/internal/shared/config"
	"github.com/gradlink/server/internal/shared/metrics"
)

// GitHubFactory builds GitHub-backed clients. All clients share one circuit
// breaker so a failing platform trips once, not per token.
type GitHubFactory struct {
	timeout time.Duration
	metrics *metrics.Metrics
	breaker *gobreaker.CircuitBreaker[*github.Response]
	logger  *zap.Logger
}

// NewGitHubFactory creates a client factory for the GitHub API.
func NewGitHubFactory(cfg *config.VCSConfig, m *metrics.Metrics, logger *zap.Logger) *GitHubFactory {
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker[*github.Response](gobreaker.Settings{
		Name:    "github",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client-side errors from the platform (404, 422, ...) are normal
		// operation, not platform failure.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ghErr *github.ErrorResponse
			if errors.As(err, &ghErr) && ghErr.Response != nil {
				return ghErr.Response.StatusCode < http.StatusInternalServerError
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("vcs circuit state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &GitHubFactory{
		timeout: cfg.RequestTimeout,
		metrics: m,
		breaker: breaker,
		logger:  logger,
	}
}

// ClientFor returns a client bound to the given access token. An empty token
// yields an unauthenticated client.
func (f *GitHubFactory) ClientFor(token string) Client {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), ts)
	}
	return &githubClient{
		gh:      github.NewClient(hc),
		factory: f,
	}
}

type githubClient struct {
	gh      *github.Client
	factory *GitHubFactory
}

// call runs one platform request through the shared breaker with a bounded
// timeout and records the outcome.
func (c *githubClient) call(ctx context.Context, endpoint string, fn func(ctx context.Context) (*github.Response, error)) error {
	ctx, cancel := context.WithTimeout(ctx, c.factory.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.factory.breaker.Execute(func() (*github.Response, error) {
		return fn(ctx)
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.factory.metrics.RecordVCSRequest(endpoint, status, time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &UpstreamError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "platform temporarily unavailable",
		}
	}
	return translateError(err)
}

func (c *githubClient) User(ctx context.Context, username string) (*Account, error) {
	var user *github.User
	err := c.call(ctx, "users.get", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		user, resp, err = c.gh.Users.Get(ctx, username)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		Name:      user.GetName(),
		Email:     user.GetEmail(),
		AvatarURL: user.GetAvatarURL(),
	}, nil
}

func (c *githubClient) CreateRepository(ctx context.Context, req CreateRepositoryRequest) (*Repository, error) {
	var repo *github.Repository
	err := c.call(ctx, "repos.create", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		repo, resp, err = c.gh.Repositories.Create(ctx, "", &github.Repository{
			Name:        github.String(req.Name),
			Description: github.String(req.Description),
			Private:     github.Bool(req.Private),
			AutoInit:    github.Bool(req.AutoInit),
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return convertRepository(repo), nil
}

func (c *githubClient) AddCollaborator(ctx context.Context, owner, repo, username, permission string) error {
	return c.call(ctx, "repos.add_collaborator", func(ctx context.Context) (*github.Response, error) {
		_, resp, err := c.gh.Repositories.AddCollaborator(ctx, owner, repo, username,
			&github.RepositoryAddCollaboratorOptions{Permission: permission})
		return resp, err
	})
}

func (c *githubClient) Repository(ctx context.Context, owner, repo string) (*Repository, error) {
	var r *github.Repository
	err := c.call(ctx, "repos.get", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		r, resp, err = c.gh.Repositories.Get(ctx, owner, repo)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return convertRepository(r), nil
}

func (c *githubClient) Branch(ctx context.Context, owner, repo, branch string) (*Branch, error) {
	var b *github.Branch
	err := c.call(ctx, "repos.get_branch", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		b, resp, err = c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 0)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return &Branch{
		Name: b.GetName(),
		SHA:  b.GetCommit().GetSHA(),
	}, nil
}

func (c *githubClient) CompareBranches(ctx context.Context, owner, repo, base, head string) (*Comparison, error) {
	var cmp *github.CommitsComparison
	err := c.call(ctx, "repos.compare", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		cmp, resp, err = c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Status:       cmp.GetStatus(),
		AheadBy:      cmp.GetAheadBy(),
		BehindBy:     cmp.GetBehindBy(),
		TotalCommits: cmp.GetTotalCommits(),
	}, nil
}

func (c *githubClient) CreatePullRequest(ctx context.Context, owner, repo string, req NewPullRequest) (*PullRequest, error) {
	var pr *github.PullRequest
	err := c.call(ctx, "pulls.create", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		pr, resp, err = c.gh.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
			Title:               github.String(req.Title),
			Head:                github.String(req.Head),
			Base:                github.String(req.Base),
			Body:                github.String(req.Body),
			MaintainerCanModify: github.Bool(req.MaintainerCanModify),
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return convertPullRequest(pr), nil
}

func (c *githubClient) Contributors(ctx context.Context, owner, repo string) ([]Contributor, error) {
	var all []Contributor
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		var page []*github.Contributor
		var next int
		err := c.call(ctx, "repos.contributors", func(ctx context.Context) (*github.Response, error) {
			var resp *github.Response
			var err error
			page, resp, err = c.gh.Repositories.ListContributors(ctx, owner, repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, con := range page {
			all = append(all, Contributor{
				Login:         con.GetLogin(),
				AvatarURL:     con.GetAvatarURL(),
				Contributions: con.GetContributions(),
			})
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	return all, nil
}

func (c *githubClient) CommitsSince(ctx context.Context, owner, repo string, since time.Time) ([]Commit, error) {
	var all []Commit
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		var page []*github.RepositoryCommit
		var next int
		err := c.call(ctx, "repos.commits", func(ctx context.Context) (*github.Response, error) {
			var resp *github.Response
			var err error
			page, resp, err = c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, rc := range page {
			all = append(all, Commit{
				SHA:            rc.GetSHA(),
				AuthorLogin:    rc.GetAuthor().GetLogin(),
				CommitterLogin: rc.GetCommitter().GetLogin(),
				AuthorName:     rc.GetCommit().GetAuthor().GetName(),
				CommitterName:  rc.GetCommit().GetCommitter().GetName(),
			})
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	return all, nil
}

func (c *githubClient) Collaborators(ctx context.Context, owner, repo string) ([]Collaborator, error) {
	var all []Collaborator
	opts := &github.ListCollaboratorsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		var page []*github.User
		var next int
		err := c.call(ctx, "repos.collaborators", func(ctx context.Context) (*github.Response, error) {
			var resp *github.Response
			var err error
			page, resp, err = c.gh.Repositories.ListCollaborators(ctx, owner, repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			all = append(all, Collaborator{
				Login:     u.GetLogin(),
				AvatarURL: u.GetAvatarURL(),
			})
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	return all, nil
}

func (c *githubClient) Invitations(ctx context.Context, owner, repo string) ([]Invitation, error) {
	var all []Invitation
	opts := &github.ListOptions{PerPage: 100}
	for {
		var page []*github.RepositoryInvitation
		var next int
		err := c.call(ctx, "repos.invitations", func(ctx context.Context) (*github.Response, error) {
			var resp *github.Response
			var err error
			page, resp, err = c.gh.Repositories.ListInvitations(ctx, owner, repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, inv := range page {
			all = append(all, Invitation{
				InviteeLogin:     inv.GetInvitee().GetLogin(),
				InviteeAvatarURL: inv.GetInvitee().GetAvatarURL(),
			})
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	return all, nil
}

func convertRepository(r *github.Repository) *Repository {
	return &Repository{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
		CloneURL:      r.GetCloneURL(),
	}
}

func convertPullRequest(pr *github.PullRequest) *PullRequest {
	return &PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Body:         pr.GetBody(),
		State:        pr.GetState(),
		HTMLURL:      pr.GetHTMLURL(),
		User:         pr.GetUser().GetLogin(),
		Head:         convertRef(pr.GetHead()),
		Base:         convertRef(pr.GetBase()),
		Mergeable:    pr.Mergeable,
		Commits:      pr.GetCommits(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
	}
}

func convertRef(ref *github.PullRequestBranch) PullRequestRef {
	return PullRequestRef{
		Ref:  ref.GetRef(),
		SHA:  ref.GetSHA(),
		Repo: ref.GetRepo().GetFullName(),
	}
}
