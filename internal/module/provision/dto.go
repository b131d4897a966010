package provision

// CreateRepositoryRequest is the provisioning request body. Username is the
// caller's platform username; StudentUID is only honored when a supervisor
// creates on behalf of a student.
type CreateRepositoryRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Username    string   `json:"username" binding:"required"`
	StudentUID  string   `json:"studentUid"`
	TeamMembers []string `json:"teamMembers"`
}

// CollaboratorResponse is one member's invite outcome.
type CollaboratorResponse struct {
	Username string `json:"username"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Code     int    `json:"code,omitempty"`
}

// CreateRepositoryResponse reports the provisioned repository and the
// per-member invite outcomes.
type CreateRepositoryResponse struct {
	Name            string                 `json:"name"`
	Owner           string                 `json:"owner"`
	URL             string                 `json:"url"`
	Private         bool                   `json:"private"`
	PendingApproval bool                   `json:"pendingApproval"`
	SupervisorUID   string                 `json:"supervisorUid,omitempty"`
	Collaborators   []CollaboratorResponse `json:"collaborators"`
	InvitesSent     int                    `json:"invitesSent"`
	InvitesFailed   int                    `json:"invitesFailed"`
	RepoKey         string                 `json:"repoKey"`
	StudentRepoKey  string                 `json:"studentRepoKey"`
}

// LinkSupervisorResponse reports the updated linkage state.
type LinkSupervisorResponse struct {
	Owner           string `json:"owner"`
	Name            string `json:"name"`
	SupervisorUID   string `json:"supervisorUid"`
	ConnectionID    string `json:"connectionId"`
	PendingApproval bool   `json:"pendingApproval"`
}

// ToResponse converts a provisioning result to its response body.
func (r *ProvisionResult) ToResponse() *CreateRepositoryResponse {
	repo := r.Repository
	collaborators := make([]CollaboratorResponse, len(repo.Collaborators))
	failed := 0
	for i, c := range repo.Collaborators {
		collaborators[i] = CollaboratorResponse{
			Username: c.Username,
			Status:   string(c.Status),
			Error:    c.Error,
			Code:     c.Code,
		}
		if c.Status == CollaboratorFailed {
			failed++
		}
	}

	return &CreateRepositoryResponse{
		Name:            repo.Name,
		Owner:           repo.Owner,
		URL:             repo.Metadata.URL,
		Private:         repo.Metadata.Private,
		PendingApproval: repo.PendingApproval,
		SupervisorUID:   repo.SupervisorUID,
		Collaborators:   collaborators,
		InvitesSent:     len(collaborators) - failed,
		InvitesFailed:   failed,
		RepoKey:         r.RepoKey,
		StudentRepoKey:  r.StudentRepoKey,
	}
}

// ToLinkResponse converts an updated team repository to the link response.
func ToLinkResponse(repo *TeamRepository) *LinkSupervisorResponse {
	return &LinkSupervisorResponse{
		Owner:           repo.Owner,
		Name:            repo.Name,
		SupervisorUID:   repo.SupervisorUID,
		ConnectionID:    repo.ConnectionID,
		PendingApproval: repo.PendingApproval,
	}
}
