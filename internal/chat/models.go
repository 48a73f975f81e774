package chat

import "time"

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// DefaultTitle is the title a chat carries until its first user message.
const DefaultTitle = "New Chat"

type Chat struct {
	ID          string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(64);not null" json:"title"`
	LastMessage string    `gorm:"type:text;not null" json:"last_message"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (Chat) TableName() string { return "chats" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    string    `gorm:"type:varchar(26);not null;index" json:"chat_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Sender    string    `gorm:"type:varchar(16);not null" json:"sender"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
