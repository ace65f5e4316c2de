package dto

type InsightResponse struct {
	ID          string `json:"id"`
	InsightType string `json:"insight_type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Importance  int    `json:"importance"`
	CreatedAt   string `json:"created_at"`
}
