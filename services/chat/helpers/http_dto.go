package helpers

// Request/Response DTOs
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MessageResponse struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	Sequence  int64  `json:"sequence"`
	CreatedAt string `json:"created_at"`
}

type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
	// NextBefore is the cursor for the next (older) page; zero when exhausted.
	NextBefore int64 `json:"next_before"`
}

type ParticipantsResponse struct {
	Participants []string `json:"participants"`
	Typing       []string `json:"typing"`
}
