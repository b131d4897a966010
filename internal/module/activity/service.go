package activity

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gradlink/server/internal/shared/vcs"
)

// CredentialResolver looks up the stored access token for the account owning
// a platform numeric id.
type CredentialResolver interface {
	TokenByExternalID(ctx context.Context, externalID int64) (string, error)
}

// Service reconciles contributor, commit, collaborator and invitation data
// into one activity snapshot. Nothing is persisted; every call reflects the
// platform's current state.
type Service struct {
	credentials   CredentialResolver
	clients       vcs.Factory
	fallbackToken string
	defaultWindow int
	matcher       nameMatcher
	logger        *zap.Logger
}

// NewService creates an activity service. fallbackToken may be empty, in
// which case unauthenticated access is the last resort. defaultWindow is the
// configured activity window in days; <= 0 selects DefaultWindowDays.
func NewService(credentials CredentialResolver, clients vcs.Factory, fallbackToken string, defaultWindow int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindowDays
	}
	return &Service{
		credentials:   credentials,
		clients:       clients,
		fallbackToken: fallbackToken,
		defaultWindow: defaultWindow,
		matcher:       caseInsensitiveNameMatcher{},
		logger:        logger,
	}
}

// RepoActivity builds the activity snapshot for a repository over the given
// window. windowDays <= 0 selects the configured default window.
func (s *Service) RepoActivity(ctx context.Context, owner, repo string, windowDays int) (*Snapshot, error) {
	if windowDays <= 0 {
		windowDays = s.defaultWindow
	}

	client := s.clients.ClientFor(s.resolveToken(ctx, owner))

	contributors, err := client.Contributors(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	commits, err := client.CommitsSince(ctx, owner, repo, since)
	if err != nil {
		return nil, err
	}

	collaborators, err := client.Collaborators(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	// Invitation data is best-effort: the token may lack the scope to list
	// invites, which must not fail the whole snapshot.
	invitations, err := client.Invitations(ctx, owner, repo)
	if err != nil {
		s.logger.Warn("invitation listing failed, treating as none pending",
			zap.String("repo", owner+"/"+repo),
			zap.Error(err),
		)
		invitations = nil
	}

	active := s.activeLogins(commits, contributors)
	commitCounts := make(map[string]int, len(contributors))
	for _, c := range contributors {
		commitCounts[strings.ToLower(c.Login)] = c.Contributions
	}

	snapshot := &Snapshot{
		Active:        []Member{},
		Inactive:      []Member{},
		TotalAccepted: len(collaborators),
		TotalPending:  len(invitations),
		WindowDays:    windowDays,
		GeneratedAt:   time.Now(),
	}

	accepted := make(map[string]bool, len(collaborators))
	for _, c := range collaborators {
		key := strings.ToLower(c.Login)
		accepted[key] = true
		if active[key] {
			snapshot.Active = append(snapshot.Active, Member{
				Login:     c.Login,
				AvatarURL: c.AvatarURL,
				Commits:   commitCounts[key],
			})
		} else {
			snapshot.Inactive = append(snapshot.Inactive, Member{
				Login:     c.Login,
				AvatarURL: c.AvatarURL,
			})
		}
	}

	for _, inv := range invitations {
		if accepted[strings.ToLower(inv.InviteeLogin)] {
			continue
		}
		snapshot.Inactive = append(snapshot.Inactive, Member{
			Login:         inv.InviteeLogin,
			AvatarURL:     inv.InviteeAvatarURL,
			PendingInvite: true,
		})
	}

	return snapshot, nil
}

// activeLogins builds the set of lowercase logins seen in the commit window.
// Logins are taken from the author and committer attribution when present;
// otherwise the display name is matched against the contributor list.
func (s *Service) activeLogins(commits []vcs.Commit, contributors []vcs.Contributor) map[string]bool {
	active := make(map[string]bool)
	add := func(login, name string) {
		if login != "" {
			active[strings.ToLower(login)] = true
			return
		}
		if matched, ok := s.matcher.Match(name, contributors); ok {
			active[strings.ToLower(matched)] = true
		}
	}
	for _, c := range commits {
		add(c.AuthorLogin, c.AuthorName)
		add(c.CommitterLogin, c.CommitterName)
	}
	return active
}

// resolveToken picks the access token for reading the repository: the owner
// account's stored credential first, then the service fallback token, then
// unauthenticated. Private repositories are only visible on the first path.
func (s *Service) resolveToken(ctx context.Context, owner string) string {
	probe := s.clients.ClientFor(s.fallbackToken)
	account, err := probe.User(ctx, owner)
	if err == nil && account != nil {
		token, terr := s.credentials.TokenByExternalID(ctx, account.ID)
		if terr == nil {
			return token
		}
		s.logger.Debug("no stored credential for repository owner",
			zap.String("owner", owner),
			zap.Int64("external_id", account.ID),
		)
	} else {
		s.logger.Debug("owner account lookup failed",
			zap.String("owner", owner),
			zap.Error(err),
		)
	}

	return s.fallbackToken
}
