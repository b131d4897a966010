package provision

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gradlink/server/internal/shared/errors"
	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/store"
	"github.com/gradlink/server/internal/shared/vcs"
)

// TokenSource yields the stored platform access token for a username, but
// only when the account is owned by the calling user.
type TokenSource interface {
	AccessToken(ctx context.Context, callerUID, username string) (string, error)
}

// CollaboratorPermission is the permission granted to invited team members.
const CollaboratorPermission = "push"

// Service provisions team repositories on the external platform and records
// the outcome durably.
type Service struct {
	gateway     store.Gateway
	connections *ConnectionRepository
	tokens      TokenSource
	clients     vcs.Factory
	logger      *zap.Logger
}

// NewService creates a provisioning service.
func NewService(gateway store.Gateway, connections *ConnectionRepository, tokens TokenSource, clients vcs.Factory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:     gateway,
		connections: connections,
		tokens:      tokens,
		clients:     clients,
		logger:      logger,
	}
}

// CreateTeamRepository creates a repository for a student team, invites the
// team members, and persists the team record plus the student's own entry in
// one atomic batch.
//
// Collaborator invites are the partial-failure zone: the repository creation
// succeeds even when every invite fails, and each member's outcome is
// reported individually. Repository creation itself is the one hard failure
// point; nothing is persisted if it fails.
func (s *Service) CreateTeamRepository(ctx context.Context, caller *middleware.Identity, req *CreateRepositoryRequest) (*ProvisionResult, error) {
	if caller == nil {
		return nil, apperrors.Unauthorized("")
	}

	// The caller's verified uid always wins over the body for the caller's
	// own identity. A body studentUID only matters when a supervisor creates
	// on behalf of a student.
	studentUID := caller.UID
	callerIsStudent := true
	if req.StudentUID != "" && req.StudentUID != caller.UID {
		studentUID = req.StudentUID
		callerIsStudent = false
	}

	supervisorUID, connectionID, err := s.resolveLinkage(ctx, caller, studentUID, callerIsStudent)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, caller.UID, req.Username)
	if err != nil {
		return nil, apperrors.Linkage("no platform credential for " + req.Username).
			WithSolutions("Connect the platform account before creating repositories")
	}

	client := s.clients.ClientFor(token)
	repo, err := client.CreateRepository(ctx, vcs.CreateRepositoryRequest{
		Name:        req.Name,
		Description: req.Description,
		Private:     true,
		AutoInit:    true,
	})
	if err != nil {
		s.logger.Error("repository creation failed",
			zap.String("name", req.Name),
			zap.String("owner", req.Username),
			zap.Error(err),
		)
		return nil, err
	}

	members := NormalizeMembers(req.TeamMembers, repo.Owner)
	results := s.inviteCollaborators(ctx, client, repo.Owner, repo.Name, members)

	record := &TeamRepository{
		Name:            repo.Name,
		Owner:           repo.Owner,
		SupervisorUID:   supervisorUID,
		StudentUID:      studentUID,
		TeamMembers:     members,
		ConnectionID:    connectionID,
		PendingApproval: supervisorUID == "",
		Collaborators:   results,
		Metadata: RepoMetadata{
			URL:           repo.HTMLURL,
			CloneURL:      repo.CloneURL,
			Private:       repo.Private,
			DefaultBranch: repo.DefaultBranch,
			CreatedAt:     time.Now(),
		},
	}

	repoKey := RepoKey(repo.Owner, repo.Name)
	studentKey := StudentRepoKey(studentUID, repo.Owner, repo.Name)
	entry := &StudentRepoEntry{
		StudentUID: studentUID,
		Owner:      repo.Owner,
		Name:       repo.Name,
		RepoKey:    repoKey,
		CreatedAt:  record.Metadata.CreatedAt,
	}

	err = s.gateway.BatchWrite(ctx, []store.Write{
		{Collection: RepoCollection, Key: repoKey, Doc: record},
		{Collection: StudentRepoCollection, Key: studentKey, Doc: entry},
	})
	if err != nil {
		return nil, apperrors.Persistence("could not persist team repository", err)
	}

	succeeded := 0
	for _, r := range results {
		if r.Status == CollaboratorSuccess {
			succeeded++
		}
	}
	s.logger.Info("team repository provisioned",
		zap.String("repo", repoKey),
		zap.String("student_uid", studentUID),
		zap.Bool("pending_approval", record.PendingApproval),
		zap.Int("invites_succeeded", succeeded),
		zap.Int("invites_failed", len(results)-succeeded),
	)

	return &ProvisionResult{
		Repository:     record,
		RepoKey:        repoKey,
		StudentRepoKey: studentKey,
	}, nil
}

// resolveLinkage determines the supervisor side of the team record. An
// unapproved or missing connection never blocks creation; the record is
// simply marked pending.
func (s *Service) resolveLinkage(ctx context.Context, caller *middleware.Identity, studentUID string, callerIsStudent bool) (supervisorUID, connectionID string, err error) {
	if callerIsStudent {
		conn, err := s.connections.ActiveForStudent(ctx, studentUID)
		if err != nil {
			return "", "", apperrors.Persistence("could not look up connection", err)
		}
		if conn != nil {
			return conn.SupervisorUID, conn.ID, nil
		}
		return "", "", nil
	}

	conn, err := s.connections.Between(ctx, studentUID, caller.UID)
	if err != nil {
		return "", "", apperrors.Persistence("could not look up connection", err)
	}
	if conn == nil || conn.Status != ConnectionActive {
		return "", "", nil
	}
	return conn.SupervisorUID, conn.ID, nil
}

// inviteCollaborators fans one invite per member out concurrently and waits
// for all of them. A failed invite is captured in its slot, never propagated.
func (s *Service) inviteCollaborators(ctx context.Context, client vcs.Client, owner, repo string, members []string) []CollaboratorResult {
	results := make([]CollaboratorResult, len(members))

	var wg sync.WaitGroup
	for i, member := range members {
		wg.Add(1)
		go func(i int, member string) {
			defer wg.Done()
			if err := client.AddCollaborator(ctx, owner, repo, member, CollaboratorPermission); err != nil {
				s.logger.Warn("collaborator invite failed",
					zap.String("repo", owner+"/"+repo),
					zap.String("member", member),
					zap.Error(err),
				)
				results[i] = CollaboratorResult{
					Username: member,
					Status:   CollaboratorFailed,
					Error:    err.Error(),
					Code:     vcs.StatusCode(err),
				}
				return
			}
			results[i] = CollaboratorResult{Username: member, Status: CollaboratorSuccess}
		}(i, member)
	}
	wg.Wait()

	return results
}

// LinkSupervisor attaches the calling supervisor to an existing team
// repository after their connection to the student was approved.
func (s *Service) LinkSupervisor(ctx context.Context, caller *middleware.Identity, owner, repo string) (*TeamRepository, error) {
	if caller == nil {
		return nil, apperrors.Unauthorized("")
	}

	key := RepoKey(owner, repo)
	var record TeamRepository
	if err := s.gateway.Get(ctx, RepoCollection, key, &record); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRepoNotFound
		}
		return nil, apperrors.Persistence("could not load team repository", err)
	}

	conn, err := s.connections.Between(ctx, record.StudentUID, caller.UID)
	if err != nil {
		return nil, apperrors.Persistence("could not look up connection", err)
	}
	if conn == nil {
		return nil, apperrors.Linkage(ErrConnectionNotFound.Error())
	}
	if conn.Status != ConnectionActive {
		return nil, apperrors.Linkage(ErrConnectionInactive.Error()).
			WithSolutions("Ask the student to approve the connection first")
	}

	record.SupervisorUID = caller.UID
	record.ConnectionID = conn.ID
	record.PendingApproval = false

	if err := s.gateway.Set(ctx, RepoCollection, key, &record); err != nil {
		return nil, apperrors.Persistence("could not update team repository", err)
	}

	s.logger.Info("supervisor linked",
		zap.String("repo", key),
		zap.String("supervisor_uid", caller.UID),
	)
	return &record, nil
}

// ProvisionResult is the service-level outcome of a provisioning call.
type ProvisionResult struct {
	Repository     *TeamRepository
	RepoKey        string
	StudentRepoKey string
}
