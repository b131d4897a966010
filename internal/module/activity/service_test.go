package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlink/server/internal/shared/vcs"
	"github.com/gradlink/server/internal/shared/vcs/vcstest"
)

type fakeResolver map[int64]string

func (f fakeResolver) TokenByExternalID(_ context.Context, externalID int64) (string, error) {
	token, ok := f[externalID]
	if !ok {
		return "", errors.New("no credential")
	}
	return token, nil
}

func contributorFixture() []vcs.Contributor {
	return []vcs.Contributor{
		{Login: "alice", AvatarURL: "https://a/alice", Contributions: 40},
		{Login: "bob", AvatarURL: "https://a/bob", Contributions: 12},
		{Login: "carol", AvatarURL: "https://a/carol", Contributions: 3},
	}
}

func collaboratorFixture() []vcs.Collaborator {
	return []vcs.Collaborator{
		{Login: "alice", AvatarURL: "https://a/alice"},
		{Login: "bob", AvatarURL: "https://a/bob"},
		{Login: "carol", AvatarURL: "https://a/carol"},
	}
}

func newTestService(client *vcstest.FakeClient, resolver CredentialResolver, fallback string) *Service {
	if resolver == nil {
		resolver = fakeResolver{}
	}
	return NewService(resolver, vcstest.NewFakeFactory(client), fallback, 0, nil)
}

func memberLogins(members []Member) []string {
	logins := make([]string, len(members))
	for i, m := range members {
		logins[i] = m.Login
	}
	return logins
}

func TestRepoActivityPartitionsByCommitAttribution(t *testing.T) {
	client := &vcstest.FakeClient{
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return contributorFixture(), nil
		},
		CommitsSinceFn: func(_ context.Context, _, _ string, since time.Time) ([]vcs.Commit, error) {
			assert.WithinDuration(t, time.Now().AddDate(0, 0, -21), since, time.Minute)
			return []vcs.Commit{
				{SHA: "c1", AuthorLogin: "alice"},
				{SHA: "c2", CommitterLogin: "BOB"},
			}, nil
		},
		CollaboratorsFn: func(_ context.Context, _, _ string) ([]vcs.Collaborator, error) {
			return collaboratorFixture(), nil
		},
	}
	svc := newTestService(client, nil, "")

	snap, err := svc.RepoActivity(context.Background(), "alice", "thesis", 0)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"alice", "bob"}, memberLogins(snap.Active))
	assert.ElementsMatch(t, []string{"carol"}, memberLogins(snap.Inactive))
	assert.Equal(t, 21, snap.WindowDays)
	assert.Equal(t, 3, snap.TotalAccepted)
	assert.Equal(t, 0, snap.TotalPending)

	for _, m := range snap.Active {
		switch m.Login {
		case "alice":
			assert.Equal(t, 40, m.Commits, "lifetime count from the contributor listing")
		case "bob":
			assert.Equal(t, 12, m.Commits)
		}
	}
	for _, m := range snap.Inactive {
		assert.Equal(t, 0, m.Commits)
	}
}

func TestRepoActivityMatchesDisplayNameWhenLoginMissing(t *testing.T) {
	client := &vcstest.FakeClient{
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return contributorFixture(), nil
		},
		CommitsSinceFn: func(_ context.Context, _, _ string, _ time.Time) ([]vcs.Commit, error) {
			// Commit made with a configured git name but no linked account.
			return []vcs.Commit{{SHA: "c1", AuthorName: "Carol"}}, nil
		},
		CollaboratorsFn: func(_ context.Context, _, _ string) ([]vcs.Collaborator, error) {
			return collaboratorFixture(), nil
		},
	}
	svc := newTestService(client, nil, "")

	snap, err := svc.RepoActivity(context.Background(), "alice", "thesis", 21)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"carol"}, memberLogins(snap.Active))
	assert.ElementsMatch(t, []string{"alice", "bob"}, memberLogins(snap.Inactive))
}

func TestRepoActivityListsPendingInviteesAsInactive(t *testing.T) {
	client := &vcstest.FakeClient{
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return contributorFixture(), nil
		},
		CommitsSinceFn: func(_ context.Context, _, _ string, _ time.Time) ([]vcs.Commit, error) {
			return nil, nil
		},
		CollaboratorsFn: func(_ context.Context, _, _ string) ([]vcs.Collaborator, error) {
			return []vcs.Collaborator{{Login: "alice"}}, nil
		},
		InvitationsFn: func(_ context.Context, _, _ string) ([]vcs.Invitation, error) {
			return []vcs.Invitation{
				{InviteeLogin: "dave", InviteeAvatarURL: "https://a/dave"},
				{InviteeLogin: "Alice"}, // already accepted, must not duplicate
			}, nil
		},
	}
	svc := newTestService(client, nil, "")

	snap, err := svc.RepoActivity(context.Background(), "alice", "thesis", 21)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.TotalAccepted)
	assert.Equal(t, 2, snap.TotalPending, "totals count raw invites, not the partition")

	require.Len(t, snap.Inactive, 2)
	byLogin := make(map[string]Member)
	for _, m := range snap.Inactive {
		byLogin[m.Login] = m
	}
	assert.True(t, byLogin["dave"].PendingInvite)
	assert.False(t, byLogin["alice"].PendingInvite)
}

func TestRepoActivitySwallowsInvitationFailure(t *testing.T) {
	client := &vcstest.FakeClient{
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return contributorFixture(), nil
		},
		CommitsSinceFn: func(_ context.Context, _, _ string, _ time.Time) ([]vcs.Commit, error) {
			return []vcs.Commit{{SHA: "c1", AuthorLogin: "alice"}}, nil
		},
		CollaboratorsFn: func(_ context.Context, _, _ string) ([]vcs.Collaborator, error) {
			return collaboratorFixture(), nil
		},
		InvitationsFn: func(_ context.Context, _, _ string) ([]vcs.Invitation, error) {
			return nil, &vcs.UpstreamError{StatusCode: 403, Message: "missing scope"}
		},
	}
	svc := newTestService(client, nil, "")

	snap, err := svc.RepoActivity(context.Background(), "alice", "thesis", 21)
	require.NoError(t, err, "invitation failures degrade, never abort")
	assert.Equal(t, 0, snap.TotalPending)
	assert.Equal(t, 3, snap.TotalAccepted)
}

func TestRepoActivityHardFailsOnContributorError(t *testing.T) {
	client := &vcstest.FakeClient{
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return nil, &vcs.UpstreamError{StatusCode: 404, Message: "Not Found"}
		},
	}
	svc := newTestService(client, nil, "")

	_, err := svc.RepoActivity(context.Background(), "alice", "ghost", 21)
	require.Error(t, err)
	assert.True(t, vcs.IsNotFound(err))
}

func TestTokenResolutionPrefersOwnerCredential(t *testing.T) {
	client := &vcstest.FakeClient{
		UserFn: func(_ context.Context, username string) (*vcs.Account, error) {
			assert.Equal(t, "alice", username)
			return &vcs.Account{ID: 42, Login: "alice"}, nil
		},
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return nil, nil
		},
	}
	factory := vcstest.NewFakeFactory(client)
	svc := NewService(fakeResolver{42: "owner-token"}, factory, "fallback-token", 0, nil)

	_, err := svc.RepoActivity(context.Background(), "alice", "thesis", 21)
	require.NoError(t, err)

	tokens := factory.Tokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, "fallback-token", tokens[0], "owner lookup probes with the fallback token")
	assert.Equal(t, "owner-token", tokens[1], "data fetches use the owner's stored credential")
}

func TestTokenResolutionFallsBackWhenOwnerUnknown(t *testing.T) {
	client := &vcstest.FakeClient{
		UserFn: func(_ context.Context, _ string) (*vcs.Account, error) {
			return nil, &vcs.UpstreamError{StatusCode: 404, Message: "Not Found"}
		},
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return nil, nil
		},
	}
	factory := vcstest.NewFakeFactory(client)
	svc := NewService(fakeResolver{}, factory, "fallback-token", 0, nil)

	_, err := svc.RepoActivity(context.Background(), "ghost", "thesis", 21)
	require.NoError(t, err)

	tokens := factory.Tokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, "fallback-token", tokens[1])
}

func TestConfiguredDefaultWindow(t *testing.T) {
	var gotSince time.Time
	client := &vcstest.FakeClient{
		ContributorsFn: func(_ context.Context, _, _ string) ([]vcs.Contributor, error) {
			return nil, nil
		},
		CommitsSinceFn: func(_ context.Context, _, _ string, since time.Time) ([]vcs.Commit, error) {
			gotSince = since
			return nil, nil
		},
	}
	svc := NewService(fakeResolver{}, vcstest.NewFakeFactory(client), "", 7, nil)

	snap, err := svc.RepoActivity(context.Background(), "alice", "thesis", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.WindowDays, "configured default wins when the request omits a window")
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), gotSince, time.Minute)

	// An explicit request window still overrides the configured default.
	snap, err = svc.RepoActivity(context.Background(), "alice", "thesis", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, snap.WindowDays)

	// An unset configuration falls back to the built-in default.
	unconfigured := NewService(fakeResolver{}, vcstest.NewFakeFactory(client), "", 0, nil)
	snap, err = unconfigured.RepoActivity(context.Background(), "alice", "thesis", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, snap.WindowDays)
}

func TestNameMatcherIgnoresCaseAndWhitespace(t *testing.T) {
	m := caseInsensitiveNameMatcher{}
	contributors := contributorFixture()

	login, ok := m.Match("  ALICE ", contributors)
	require.True(t, ok)
	assert.Equal(t, "alice", login)

	_, ok = m.Match("", contributors)
	assert.False(t, ok)

	_, ok = m.Match("unknown name", contributors)
	assert.False(t, ok)
}
