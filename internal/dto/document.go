package dto

type DocumentResponse struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	DocumentType     string         `json:"document_type"`
	Description      *string        `json:"description,omitempty"`
	FileSize         int64          `json:"file_size"`
	Status           string         `json:"status"`
	ExtractedData    map[string]any `json:"extracted_data,omitempty"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type DocumentDetailResponse struct {
	Document     DocumentResponse      `json:"document"`
	Transactions []TransactionResponse `json:"transactions"`
	Insights     []InsightResponse     `json:"insights"`
}

type ReprocessResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}
