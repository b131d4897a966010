package pullrequest

import (
	"fmt"
	"strings"
	"time"
)

// Collection is the durable-store collection for pull-request records.
const Collection = "pull_requests"

// Key derives the pull-request document key. Records are keyed by repository
// name plus number so a re-run of the same creation upserts the same record.
func Key(repo string, number int) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(repo), number)
}

// BranchRef pins one side of the pull request to the exact ref, commit and
// repository it pointed at when the pull request was opened.
type BranchRef struct {
	Ref  string `json:"ref"`
	SHA  string `json:"sha"`
	Repo string `json:"repo,omitempty"`
}

// ChangeStats summarizes the diff reported by the platform at creation time.
type ChangeStats struct {
	Commits      int `json:"commits"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	ChangedFiles int `json:"changed_files"`
}

// Record is the persisted view of an opened pull request. Mergeable is nil
// when the platform has not computed mergeability yet.
type Record struct {
	Owner     string      `json:"owner"`
	Repo      string      `json:"repo"`
	Number    int         `json:"number"`
	Title     string      `json:"title"`
	Body      string      `json:"body,omitempty"`
	Head      BranchRef   `json:"head"`
	Base      BranchRef   `json:"base"`
	State     string      `json:"state"`
	URL       string      `json:"url"`
	Author    string      `json:"author"`
	Mergeable *bool       `json:"mergeable,omitempty"`
	Stats     ChangeStats `json:"stats"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
