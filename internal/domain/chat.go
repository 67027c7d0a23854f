package domain

import "time"

type ChatAuthor struct {
	Id          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Avatar      *string `json:"avatar,omitempty"`
}

type ChatMessage struct {
	Id        string     `json:"id"`
	Content   string     `json:"content"`
	Author    ChatAuthor `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
}
