package pullrequest

import "time"

// CreateRequest is the pull-request creation body. Username names the stored
// platform credential to act with.
type CreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Head        string `json:"head" binding:"required"`
	Base        string `json:"base"`
	Description string `json:"description"`
	Username    string `json:"username" binding:"required"`
}

// CreateResponse reports the opened pull request.
type CreateResponse struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Head      string    `json:"head"`
	Base      string    `json:"base"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	RecordKey string    `json:"recordKey"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts a persisted record to the response body.
func (r *Record) ToResponse() *CreateResponse {
	return &CreateResponse{
		Number:    r.Number,
		Title:     r.Title,
		Head:      r.Head.Ref,
		Base:      r.Base.Ref,
		State:     r.State,
		URL:       r.URL,
		Author:    r.Author,
		RecordKey: Key(r.Repo, r.Number),
		CreatedAt: r.CreatedAt,
	}
}
