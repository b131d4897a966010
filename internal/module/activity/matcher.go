package activity

import (
	"strings"

	"github.com/gradlink/server/internal/shared/vcs"
)

// nameMatcher resolves a commit's display name to a contributor login when
// the platform could not attribute the git identity to an account. Isolated
// behind an interface so the heuristic can be replaced without touching the
// reconciliation flow.
type nameMatcher interface {
	Match(name string, contributors []vcs.Contributor) (login string, ok bool)
}

// caseInsensitiveNameMatcher matches display names against contributor
// logins ignoring case. It handles commits made with a configured git name
// equal to the account login but without a linked email.
type caseInsensitiveNameMatcher struct{}

func (caseInsensitiveNameMatcher) Match(name string, contributors []vcs.Contributor) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, c := range contributors {
		if strings.EqualFold(c.Login, name) {
			return c.Login, true
		}
	}
	return "", false
}
