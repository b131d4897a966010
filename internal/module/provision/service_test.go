package provision

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gradlink/server/internal/shared/errors"
	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/store"
	"github.com/gradlink/server/internal/shared/vcs"
	"github.com/gradlink/server/internal/shared/vcs/vcstest"
)

// fakeTokens maps "callerUID/username" to a token, mirroring the ownership
// check the real credential store applies.
type fakeTokens map[string]string

func (f fakeTokens) AccessToken(_ context.Context, callerUID, username string) (string, error) {
	token, ok := f[callerUID+"/"+username]
	if !ok {
		return "", errors.New("no credential")
	}
	return token, nil
}

func okCreateRepository(owner string) func(context.Context, vcs.CreateRepositoryRequest) (*vcs.Repository, error) {
	return func(_ context.Context, req vcs.CreateRepositoryRequest) (*vcs.Repository, error) {
		return &vcs.Repository{
			Owner:         owner,
			Name:          req.Name,
			Private:       req.Private,
			DefaultBranch: "main",
			HTMLURL:       "https://example.com/" + owner + "/" + req.Name,
		}, nil
	}
}

func newTestService(gw *store.MemoryGateway, client *vcstest.FakeClient) *Service {
	return NewService(gw, NewConnectionRepository(gw), fakeTokens{
		"stu-1/alice": "tok",
		"sup-1/alice": "tok",
	}, vcstest.NewFakeFactory(client), nil)
}

func student() *middleware.Identity {
	return &middleware.Identity{UID: "stu-1", Email: "stu@uni.edu"}
}

func TestRepoKeyCaseInsensitive(t *testing.T) {
	assert.Equal(t, "alice_thesis", RepoKey("Alice", "Thesis"))
	assert.Equal(t, RepoKey("ALICE", "THESIS"), RepoKey("alice", "thesis"))
}

func TestNormalizeMembers(t *testing.T) {
	got := NormalizeMembers([]string{" Bob ", "carol", "BOB", "Alice", "", "dave"}, "alice")
	assert.Equal(t, []string{"bob", "carol", "dave"}, got)
}

func TestCreateTeamRepositorySucceedsWithPartialInviteFailures(t *testing.T) {
	client := &vcstest.FakeClient{
		CreateRepositoryFn: okCreateRepository("alice"),
		AddCollaboratorFn: func(_ context.Context, _, _, username, permission string) error {
			assert.Equal(t, CollaboratorPermission, permission)
			if username == "carol" {
				return &vcs.UpstreamError{StatusCode: 404, Message: "user not found"}
			}
			return nil
		},
	}
	gw := store.NewMemoryGateway()
	svc := newTestService(gw, client)

	result, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:        "thesis",
		Username:    "alice",
		TeamMembers: []string{"bob", "carol", "dave"},
	})
	require.NoError(t, err, "invite failures never abort provisioning")

	repo := result.Repository
	require.Len(t, repo.Collaborators, 3, "one result slot per normalized member")
	byUser := make(map[string]CollaboratorResult)
	for _, r := range repo.Collaborators {
		byUser[r.Username] = r
	}
	assert.Equal(t, CollaboratorSuccess, byUser["bob"].Status)
	assert.Equal(t, CollaboratorSuccess, byUser["dave"].Status)
	assert.Equal(t, CollaboratorFailed, byUser["carol"].Status)
	assert.Equal(t, 404, byUser["carol"].Code)
	assert.NotEmpty(t, byUser["carol"].Error)

	// Both documents persisted together.
	var stored TeamRepository
	require.NoError(t, gw.Get(context.Background(), RepoCollection, result.RepoKey, &stored))
	assert.Equal(t, "stu-1", stored.StudentUID)

	var entry StudentRepoEntry
	require.NoError(t, gw.Get(context.Background(), StudentRepoCollection, result.StudentRepoKey, &entry))
	assert.Equal(t, result.RepoKey, entry.RepoKey)
}

func TestCreateTeamRepositorySucceedsWhenEveryInviteFails(t *testing.T) {
	client := &vcstest.FakeClient{
		CreateRepositoryFn: okCreateRepository("alice"),
		AddCollaboratorFn: func(_ context.Context, _, _, _, _ string) error {
			return &vcs.UpstreamError{StatusCode: 403, Message: "forbidden"}
		},
	}
	gw := store.NewMemoryGateway()
	svc := newTestService(gw, client)

	result, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:        "thesis",
		Username:    "alice",
		TeamMembers: []string{"bob", "carol"},
	})
	require.NoError(t, err)
	for _, r := range result.Repository.Collaborators {
		assert.Equal(t, CollaboratorFailed, r.Status)
	}
	assert.Equal(t, 1, gw.Len(RepoCollection), "repository record persisted despite 0/N invites")
}

func TestCreateTeamRepositoryInvitesRunConcurrently(t *testing.T) {
	var inFlight, maxInFlight int32
	client := &vcstest.FakeClient{
		CreateRepositoryFn: okCreateRepository("alice"),
		AddCollaboratorFn: func(_ context.Context, _, _, _, _ string) error {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxInFlight)
				if cur <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		},
	}
	svc := newTestService(store.NewMemoryGateway(), client)

	members := make([]string, 5)
	for i := range members {
		members[i] = fmt.Sprintf("member%d", i)
	}
	_, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:        "thesis",
		Username:    "alice",
		TeamMembers: members,
	})
	require.NoError(t, err)
	assert.Greater(t, atomic.LoadInt32(&maxInFlight), int32(1), "invites overlap")
}

func TestCreateTeamRepositoryAbortsWhenRepoCreationFails(t *testing.T) {
	client := &vcstest.FakeClient{
		CreateRepositoryFn: func(_ context.Context, _ vcs.CreateRepositoryRequest) (*vcs.Repository, error) {
			return nil, &vcs.UpstreamError{StatusCode: 422, Message: "name already exists"}
		},
	}
	gw := store.NewMemoryGateway()
	svc := newTestService(gw, client)

	_, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:        "thesis",
		Username:    "alice",
		TeamMembers: []string{"bob"},
	})
	require.Error(t, err)
	assert.Equal(t, 422, vcs.StatusCode(err))
	assert.Equal(t, 0, client.Calls("AddCollaborator"), "no invites after a failed creation")
	assert.Equal(t, 0, gw.Len(RepoCollection))
}

func TestCreateTeamRepositoryRequiresCredential(t *testing.T) {
	svc := newTestService(store.NewMemoryGateway(), &vcstest.FakeClient{})

	_, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:     "thesis",
		Username: "mallory", // no stored credential
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLinkage))
}

func TestCreateTeamRepositoryRejectsForeignCredential(t *testing.T) {
	client := &vcstest.FakeClient{CreateRepositoryFn: okCreateRepository("alice")}
	svc := newTestService(store.NewMemoryGateway(), client)

	// alice's credential belongs to stu-1; another authenticated user
	// naming her public username must not be able to act with it.
	_, err := svc.CreateTeamRepository(context.Background(), &middleware.Identity{UID: "stu-2"}, &CreateRepositoryRequest{
		Name:     "thesis",
		Username: "alice",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLinkage))
	assert.Equal(t, 0, client.TotalCalls(), "nothing reaches the platform")
}

func TestCreateTeamRepositoryPartialPersistenceNeverHappens(t *testing.T) {
	client := &vcstest.FakeClient{CreateRepositoryFn: okCreateRepository("alice")}
	gw := store.NewMemoryGateway()
	gw.FailBatch = true
	svc := newTestService(gw, client)

	_, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:     "thesis",
		Username: "alice",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistence))
	assert.Equal(t, 0, gw.Len(RepoCollection))
	assert.Equal(t, 0, gw.Len(StudentRepoCollection))
}

func TestCreateTeamRepositoryLinksActiveConnection(t *testing.T) {
	gw := store.NewMemoryGateway()
	require.NoError(t, gw.Set(context.Background(), ConnectionCollection, "conn-1", &Connection{
		ID:            "conn-1",
		StudentUID:    "stu-1",
		SupervisorUID: "sup-1",
		Status:        ConnectionActive,
	}))
	client := &vcstest.FakeClient{CreateRepositoryFn: okCreateRepository("alice")}
	svc := newTestService(gw, client)

	result, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:     "thesis",
		Username: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "sup-1", result.Repository.SupervisorUID)
	assert.Equal(t, "conn-1", result.Repository.ConnectionID)
	assert.False(t, result.Repository.PendingApproval)
}

func TestCreateTeamRepositoryPendingWithoutConnection(t *testing.T) {
	client := &vcstest.FakeClient{CreateRepositoryFn: okCreateRepository("alice")}
	svc := newTestService(store.NewMemoryGateway(), client)

	result, err := svc.CreateTeamRepository(context.Background(), student(), &CreateRepositoryRequest{
		Name:     "thesis",
		Username: "alice",
	})
	require.NoError(t, err, "missing approval never blocks creation")
	assert.Empty(t, result.Repository.SupervisorUID)
	assert.True(t, result.Repository.PendingApproval)
}

func TestCreateTeamRepositorySupervisorCallerNeedsActiveConnection(t *testing.T) {
	gw := store.NewMemoryGateway()
	require.NoError(t, gw.Set(context.Background(), ConnectionCollection, "conn-1", &Connection{
		ID:            "conn-1",
		StudentUID:    "stu-1",
		SupervisorUID: "sup-1",
		Status:        ConnectionPending,
	}))
	client := &vcstest.FakeClient{CreateRepositoryFn: okCreateRepository("alice")}
	svc := newTestService(gw, client)

	supervisor := &middleware.Identity{UID: "sup-1"}
	result, err := svc.CreateTeamRepository(context.Background(), supervisor, &CreateRepositoryRequest{
		Name:       "thesis",
		Username:   "alice",
		StudentUID: "stu-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", result.Repository.StudentUID)
	assert.Empty(t, result.Repository.SupervisorUID, "pending connection does not link the supervisor")
	assert.True(t, result.Repository.PendingApproval)
}

func TestLinkSupervisor(t *testing.T) {
	gw := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gw.Set(ctx, RepoCollection, RepoKey("alice", "thesis"), &TeamRepository{
		Name:            "thesis",
		Owner:           "alice",
		StudentUID:      "stu-1",
		PendingApproval: true,
	}))
	require.NoError(t, gw.Set(ctx, ConnectionCollection, "conn-1", &Connection{
		ID:            "conn-1",
		StudentUID:    "stu-1",
		SupervisorUID: "sup-1",
		Status:        ConnectionActive,
	}))
	svc := newTestService(gw, &vcstest.FakeClient{})

	repo, err := svc.LinkSupervisor(ctx, &middleware.Identity{UID: "sup-1"}, "Alice", "Thesis")
	require.NoError(t, err)
	assert.Equal(t, "sup-1", repo.SupervisorUID)
	assert.Equal(t, "conn-1", repo.ConnectionID)
	assert.False(t, repo.PendingApproval)

	var stored TeamRepository
	require.NoError(t, gw.Get(ctx, RepoCollection, RepoKey("alice", "thesis"), &stored))
	assert.False(t, stored.PendingApproval)
}

func TestLinkSupervisorUnknownRepo(t *testing.T) {
	svc := newTestService(store.NewMemoryGateway(), &vcstest.FakeClient{})

	_, err := svc.LinkSupervisor(context.Background(), &middleware.Identity{UID: "sup-1"}, "alice", "ghost")
	assert.ErrorIs(t, err, ErrRepoNotFound)
}

func TestLinkSupervisorWithoutActiveConnection(t *testing.T) {
	gw := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gw.Set(ctx, RepoCollection, RepoKey("alice", "thesis"), &TeamRepository{
		Name:       "thesis",
		Owner:      "alice",
		StudentUID: "stu-1",
	}))
	svc := newTestService(gw, &vcstest.FakeClient{})

	_, err := svc.LinkSupervisor(ctx, &middleware.Identity{UID: "sup-1"}, "alice", "thesis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLinkage))
}
