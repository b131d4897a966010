package pullrequest

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gradlink/server/internal/shared/errors"
	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/store"
	"github.com/gradlink/server/internal/shared/vcs"
)

// DefaultBaseBranch is used when the request omits a base.
const DefaultBaseBranch = "main"

// TokenSource yields the stored platform access token for a username, but
// only when the account is owned by the calling user.
type TokenSource interface {
	AccessToken(ctx context.Context, callerUID, username string) (string, error)
}

// Service validates and opens pull requests against the external platform.
type Service struct {
	gateway store.Gateway
	tokens  TokenSource
	clients vcs.Factory
	logger  *zap.Logger
}

// NewService creates a pull-request service.
func NewService(gateway store.Gateway, tokens TokenSource, clients vcs.Factory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, tokens: tokens, clients: clients, logger: logger}
}

// Create runs the gated validation pipeline and opens the pull request.
//
// The gates run in order and each failure short-circuits with its own error:
// the repository must exist, the head branch must exist, and the comparison
// must show at least one commit. Only then is the pull request created and
// its record upserted.
func (s *Service) Create(ctx context.Context, caller *middleware.Identity, owner, repo string, req *CreateRequest) (*Record, error) {
	if caller == nil {
		return nil, apperrors.Unauthorized("")
	}

	base := req.Base
	if base == "" {
		base = DefaultBaseBranch
	}

	token, err := s.tokens.AccessToken(ctx, caller.UID, req.Username)
	if err != nil {
		return nil, apperrors.Linkage("no platform credential for " + req.Username).
			WithSolutions("Connect the platform account before opening pull requests")
	}
	client := s.clients.ClientFor(token)

	if _, err := client.Repository(ctx, owner, repo); err != nil {
		return nil, err
	}

	if _, err := client.Branch(ctx, owner, repo, req.Head); err != nil {
		if vcs.IsNotFound(err) {
			return nil, branchNotFound(req.Head)
		}
		return nil, err
	}

	cmp, err := client.CompareBranches(ctx, owner, repo, base, req.Head)
	if err != nil {
		return nil, err
	}
	if cmp.Status == vcs.ComparisonIdentical || cmp.TotalCommits == 0 {
		return nil, noDifference(base, req.Head, cmp.AheadBy, cmp.BehindBy)
	}

	pr, err := client.CreatePullRequest(ctx, owner, repo, vcs.NewPullRequest{
		Title:               req.Title,
		Head:                req.Head,
		Base:                base,
		Body:                req.Description,
		MaintainerCanModify: true,
	})
	if err != nil {
		s.logger.Error("pull request creation failed",
			zap.String("repo", owner+"/"+repo),
			zap.String("head", req.Head),
			zap.Error(err),
		)
		return nil, translateCreateError(err, base, req.Head)
	}

	record := &Record{
		Owner:     owner,
		Repo:      repo,
		Number:    pr.Number,
		Title:     pr.Title,
		Body:      pr.Body,
		Head:      BranchRef{Ref: pr.Head.Ref, SHA: pr.Head.SHA, Repo: pr.Head.Repo},
		Base:      BranchRef{Ref: pr.Base.Ref, SHA: pr.Base.SHA, Repo: pr.Base.Repo},
		State:     pr.State,
		URL:       pr.HTMLURL,
		Author:    pr.User,
		Mergeable: pr.Mergeable,
		Stats: ChangeStats{
			Commits:      pr.Commits,
			Additions:    pr.Additions,
			Deletions:    pr.Deletions,
			ChangedFiles: pr.ChangedFiles,
		},
		CreatedAt: pr.CreatedAt,
		UpdatedAt: time.Now(),
	}

	if err := s.gateway.Set(ctx, Collection, Key(repo, pr.Number), record); err != nil {
		return nil, apperrors.Persistence("could not persist pull request record", err)
	}

	s.logger.Info("pull request opened",
		zap.String("repo", owner+"/"+repo),
		zap.Int("number", pr.Number),
		zap.String("head", req.Head),
		zap.String("base", base),
	)
	return record, nil
}
