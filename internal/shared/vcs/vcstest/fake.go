// Package vcstest provides fakes for the platform client used in tests.
package vcstest

import (
	"context"
	"sync"
	"time"

	"github.com/gradlink/server/internal/shared/vcs"
)

// FakeClient implements vcs.Client with per-method function hooks. Methods
// without a hook fail the zero-value way: nil result, nil error. Calls counts
// every method invocation by name.
type FakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	UserFn              func(ctx context.Context, username string) (*vcs.Account, error)
	CreateRepositoryFn  func(ctx context.Context, req vcs.CreateRepositoryRequest) (*vcs.Repository, error)
	AddCollaboratorFn   func(ctx context.Context, owner, repo, username, permission string) error
	RepositoryFn        func(ctx context.Context, owner, repo string) (*vcs.Repository, error)
	BranchFn            func(ctx context.Context, owner, repo, branch string) (*vcs.Branch, error)
	CompareBranchesFn   func(ctx context.Context, owner, repo, base, head string) (*vcs.Comparison, error)
	CreatePullRequestFn func(ctx context.Context, owner, repo string, req vcs.NewPullRequest) (*vcs.PullRequest, error)
	ContributorsFn      func(ctx context.Context, owner, repo string) ([]vcs.Contributor, error)
	CommitsSinceFn      func(ctx context.Context, owner, repo string, since time.Time) ([]vcs.Commit, error)
	CollaboratorsFn     func(ctx context.Context, owner, repo string) ([]vcs.Collaborator, error)
	InvitationsFn       func(ctx context.Context, owner, repo string) ([]vcs.Invitation, error)
}

func (f *FakeClient) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

// Calls returns how many times the named method was invoked.
func (f *FakeClient) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (f *FakeClient) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeClient) User(ctx context.Context, username string) (*vcs.Account, error) {
	f.record("User")
	if f.UserFn == nil {
		return nil, nil
	}
	return f.UserFn(ctx, username)
}

func (f *FakeClient) CreateRepository(ctx context.Context, req vcs.CreateRepositoryRequest) (*vcs.Repository, error) {
	f.record("CreateRepository")
	if f.CreateRepositoryFn == nil {
		return nil, nil
	}
	return f.CreateRepositoryFn(ctx, req)
}

func (f *FakeClient) AddCollaborator(ctx context.Context, owner, repo, username, permission string) error {
	f.record("AddCollaborator")
	if f.AddCollaboratorFn == nil {
		return nil
	}
	return f.AddCollaboratorFn(ctx, owner, repo, username, permission)
}

func (f *FakeClient) Repository(ctx context.Context, owner, repo string) (*vcs.Repository, error) {
	f.record("Repository")
	if f.RepositoryFn == nil {
		return nil, nil
	}
	return f.RepositoryFn(ctx, owner, repo)
}

func (f *FakeClient) Branch(ctx context.Context, owner, repo, branch string) (*vcs.Branch, error) {
	f.record("Branch")
	if f.BranchFn == nil {
		return nil, nil
	}
	return f.BranchFn(ctx, owner, repo, branch)
}

func (f *FakeClient) CompareBranches(ctx context.Context, owner, repo, base, head string) (*vcs.Comparison, error) {
	f.record("CompareBranches")
	if f.CompareBranchesFn == nil {
		return nil, nil
	}
	return f.CompareBranchesFn(ctx, owner, repo, base, head)
}

func (f *FakeClient) CreatePullRequest(ctx context.Context, owner, repo string, req vcs.NewPullRequest) (*vcs.PullRequest, error) {
	f.record("CreatePullRequest")
	if f.CreatePullRequestFn == nil {
		return nil, nil
	}
	return f.CreatePullRequestFn(ctx, owner, repo, req)
}

func (f *FakeClient) Contributors(ctx context.Context, owner, repo string) ([]vcs.Contributor, error) {
	f.record("Contributors")
	if f.ContributorsFn == nil {
		return nil, nil
	}
	return f.ContributorsFn(ctx, owner, repo)
}

func (f *FakeClient) CommitsSince(ctx context.Context, owner, repo string, since time.Time) ([]vcs.Commit, error) {
	f.record("CommitsSince")
	if f.CommitsSinceFn == nil {
		return nil, nil
	}
	return f.CommitsSinceFn(ctx, owner, repo, since)
}

func (f *FakeClient) Collaborators(ctx context.Context, owner, repo string) ([]vcs.Collaborator, error) {
	f.record("Collaborators")
	if f.CollaboratorsFn == nil {
		return nil, nil
	}
	return f.CollaboratorsFn(ctx, owner, repo)
}

func (f *FakeClient) Invitations(ctx context.Context, owner, repo string) ([]vcs.Invitation, error) {
	f.record("Invitations")
	if f.InvitationsFn == nil {
		return nil, nil
	}
	return f.InvitationsFn(ctx, owner, repo)
}

// FakeFactory implements vcs.Factory around a single FakeClient, recording
// the tokens passed to ClientFor.
type FakeFactory struct {
	mu     sync.Mutex
	Client *FakeClient
	tokens []string
}

// NewFakeFactory creates a factory around the given client.
func NewFakeFactory(client *FakeClient) *FakeFactory {
	return &FakeFactory{Client: client}
}

func (f *FakeFactory) ClientFor(token string) vcs.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	return f.Client
}

// Tokens returns the tokens passed to ClientFor, in order.
func (f *FakeFactory) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}
