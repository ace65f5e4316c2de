package dto

type CreateDisputeRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

type UpdateDisputeStatusRequest struct {
	Status string `json:"status"`
}

type DisputeResponse struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	Reason        string `json:"reason"`
	Details       string `json:"details"`
	LetterContent string `json:"letter_content"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}
