package dto

type TransactionResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Category    *string `json:"category,omitempty"`
	IsExpense   bool    `json:"is_expense"`
	IsFlagged   bool    `json:"is_flagged"`
	FlagReason  *string `json:"flag_reason,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
