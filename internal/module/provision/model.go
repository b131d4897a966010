package provision

import (
	"fmt"
	"strings"
	"time"
)

// Durable-store collections used by the provisioner.
const (
	RepoCollection        = "team_repositories"
	StudentRepoCollection = "student_repositories"
	ConnectionCollection  = "connections"
)

// RepoKey derives the team-repository document key. It is a pure function
// of owner and name, so retried creations land on the same document.
func RepoKey(owner, name string) string {
	return strings.ToLower(owner) + "_" + strings.ToLower(name)
}

// StudentRepoKey derives the per-student repository document key.
func StudentRepoKey(studentUID, owner, name string) string {
	return fmt.Sprintf("%s_%s", studentUID, RepoKey(owner, name))
}

// CollaboratorStatus is the outcome of one collaborator invite.
type CollaboratorStatus string

const (
	CollaboratorSuccess CollaboratorStatus = "success"
	CollaboratorFailed  CollaboratorStatus = "failed"
)

// CollaboratorResult records the outcome of one invite. One entry exists
// per normalized team member, appended within a single provisioning call.
type CollaboratorResult struct {
	Username string             `json:"username"`
	Status   CollaboratorStatus `json:"status"`
	Error    string             `json:"error,omitempty"`
	Code     int                `json:"code,omitempty"`
}

// RepoMetadata captures the platform-side repository state at creation.
type RepoMetadata struct {
	URL           string    `json:"url"`
	CloneURL      string    `json:"clone_url,omitempty"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TeamRepository is the persisted record of a provisioned team repository.
// SupervisorUID, ConnectionID and PendingApproval may be updated after
// creation when a supervisor connection is approved later.
type TeamRepository struct {
	Name            string               `json:"name"`
	Owner           string               `json:"owner"`
	SupervisorUID   string               `json:"supervisor_uid,omitempty"`
	StudentUID      string               `json:"student_uid"`
	TeamMembers     []string             `json:"team_members"`
	ConnectionID    string               `json:"connection_id,omitempty"`
	PendingApproval bool                 `json:"pending_approval"`
	Collaborators   []CollaboratorResult `json:"collaborator_results"`
	Metadata        RepoMetadata         `json:"metadata"`
}

// StudentRepoEntry is the per-student subdocument pointing at the team
// repository record.
type StudentRepoEntry struct {
	StudentUID string    `json:"student_uid"`
	Owner      string    `json:"owner"`
	Name       string    `json:"name"`
	RepoKey    string    `json:"repo_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConnectionStatus values for student-supervisor connections.
const (
	ConnectionActive  = "active"
	ConnectionPending = "pending"
	ConnectionRevoked = "revoked"
)

// Connection is an approved (or pending) pairing between one student and
// one supervisor.
type Connection struct {
	ID            string `json:"id"`
	StudentUID    string `json:"student_uid"`
	SupervisorUID string `json:"supervisor_uid"`
	Status        string `json:"status"`
}

// NormalizeMembers trims, lowercases and deduplicates the member list, and
// excludes the owner's own username.
func NormalizeMembers(members []string, owner string) []string {
	owner = strings.ToLower(strings.TrimSpace(owner))
	seen := make(map[string]bool, len(members))
	var out []string
	for _, m := range members {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || m == owner || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
