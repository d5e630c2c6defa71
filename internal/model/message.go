package model

import "time"

// Message rows are written once and never updated.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;not null;index" json:"conversationId"`
	SenderUID      string    `gorm:"column:sender_uid;size:128;not null;index" json:"senderUid"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// Preview shortens a body for the conversation list.
func Preview(body string, max int) string {
	r := []rune(body)
	if len(r) <= max {
		return body
	}
	return string(r[:max-1]) + "…"
}
