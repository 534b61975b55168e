package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType — вид уведомления.
type NotificationType string

const (
	// NotificationComment — новый комментарий под объявлением получателя.
	NotificationComment NotificationType = "comment"
	// NotificationReply — ответ на комментарий получателя.
	NotificationReply NotificationType = "reply"
)

// Notification — уведомление одному получателю (MongoDB).
//   - ID — ObjectID MongoDB в строковом виде.
//   - UserID — получатель; никогда не совпадает с CommenterID
//     (самоуведомления подавляются диспетчером).
//   - CommentID — созданный комментарий (для type=comment).
//   - OriginalCommentID — комментарий, на который ответили (для type=reply).
//   - Message — усечённое превью содержимого-триггера.
//   - IsRead — единственное мутируемое поле; обратного перехода read → unread нет.
type Notification struct {
	ID                string
	UserID            uuid.UUID
	Type              NotificationType
	Title             string
	Message           string
	PropertyID        uuid.UUID
	CommentID         string
	OriginalCommentID string
	CommenterID       uuid.UUID
	CommenterName     string
	IsRead            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NotificationPage — результат постраничной выдачи уведомлений.
type NotificationPage struct {
	Items         []Notification
	NextPageToken string
}
