package pullrequest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/gradlink/server/internal/shared/errors"
	"github.com/gradlink/server/internal/shared/vcs"
)

// noCommitsFragment appears in the platform's 422 message when base and head
// point at the same history.
const noCommitsFragment = "No commits between"

// branchNotFound reports a missing head branch, distinct from a missing
// repository, with a remediation hint.
func branchNotFound(branch string) *apperrors.AppError {
	err := apperrors.NewAppError(
		"BRANCH_NOT_FOUND",
		fmt.Sprintf("branch %q does not exist on the repository", branch),
		http.StatusBadRequest,
		apperrors.ErrValidation,
	)
	return err.WithSolutions(
		"Push the branch to the platform before opening a pull request",
		"Check the branch name for typos",
	)
}

// noDifference reports an attempted pull request with zero commits between
// base and head.
func noDifference(base, head string, aheadBy, behindBy int) *apperrors.AppError {
	err := apperrors.NewAppError(
		"NO_DIFFERENCE",
		fmt.Sprintf("no commits between %s and %s", base, head),
		http.StatusBadRequest,
		apperrors.ErrValidation,
	)
	return err.WithDetails(map[string]int{
		"ahead_by":  aheadBy,
		"behind_by": behindBy,
	})
}

// translateCreateError maps an upstream 422 from pull-request creation into
// the local taxonomy: a "no commits" rejection becomes the friendlier
// no-difference error, anything else aggregates the field-level messages.
func translateCreateError(err error, base, head string) error {
	if !vcs.IsValidation(err) {
		return err
	}

	var upErr *vcs.UpstreamError
	if !errors.As(err, &upErr) {
		return err
	}

	if strings.Contains(upErr.Message, noCommitsFragment) {
		return noDifference(base, head, 0, 0)
	}
	for _, fe := range upErr.Errors {
		if strings.Contains(fe.Message, noCommitsFragment) {
			return noDifference(base, head, 0, 0)
		}
	}

	msgs := make([]string, 0, len(upErr.Errors))
	for _, fe := range upErr.Errors {
		msgs = append(msgs, fe.String())
	}
	message := upErr.Message
	if len(msgs) > 0 {
		message = strings.Join(msgs, "; ")
	}

	return apperrors.NewAppError(
		"VALIDATION_FAILED",
		message,
		http.StatusUnprocessableEntity,
		apperrors.ErrValidation,
	)
}
