package http

import (
	"time"

	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/service"
)

// commentResponse — комментарий наружу. Временные метки в RFC3339 (UTC).
type commentResponse struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	ThreadID   string    `json:"thread_id,omitempty"`
	ReplyToID  string    `json:"reply_to_id,omitempty"`
	Pinned     bool      `json:"pinned"`
	PinnedAt   time.Time `json:"pinned_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func commentFromModel(c models.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		PropertyID: c.PropertyID.String(),
		AuthorID:   c.AuthorID.String(),
		AuthorName: c.AuthorName,
		Content:    c.Content,
		ThreadID:   c.ThreadID,
		ReplyToID:  c.ReplyToID,
		Pinned:     c.Pinned,
		PinnedAt:   c.PinnedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// createdCommentResponse — ответ операций создания: сам комментарий плюс
// исход best-effort уведомления ("none"/"delivered"/"failed").
type createdCommentResponse struct {
	Comment      commentResponse `json:"comment"`
	Notification string          `json:"notification"`
}

func createdFromModel(c models.Comment, effect service.SideEffect) createdCommentResponse {
	return createdCommentResponse{
		Comment:      commentFromModel(c),
		Notification: effect.String(),
	}
}

// profileResponse — снапшот профиля автора.
type profileResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func profileFromModel(p *models.Profile) *profileResponse {
	if p == nil {
		return nil
	}

	return &profileResponse{
		UserID:    p.UserID.String(),
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
	}
}

// threadNode — узел дерева обсуждения.
type threadNode struct {
	Comment commentResponse  `json:"comment"`
	Author  *profileResponse `json:"author,omitempty"`
	Replies []threadNode     `json:"replies,omitempty"`
}

func threadFromModel(t models.Thread) threadNode {
	node := threadNode{
		Comment: commentFromModel(t.Comment),
		Author:  profileFromModel(t.Author),
	}

	for _, r := range t.Replies {
		node.Replies = append(node.Replies, threadFromModel(r))
	}

	return node
}

// threadListResponse — всё обсуждение объявления.
type threadListResponse struct {
	Threads []threadNode `json:"threads"`
}

func threadListFromModel(threads []models.Thread) threadListResponse {
	out := threadListResponse{Threads: make([]threadNode, 0, len(threads))}
	for _, t := range threads {
		out.Threads = append(out.Threads, threadFromModel(t))
	}

	return out
}

// notificationResponse — уведомление наружу.
type notificationResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	PropertyID        string    `json:"property_id"`
	CommentID         string    `json:"comment_id"`
	OriginalCommentID string    `json:"original_comment_id,omitempty"`
	CommenterID       string    `json:"commenter_id"`
	CommenterName     string    `json:"commenter_name"`
	IsRead            bool      `json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
}

func notificationFromModel(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:                n.ID,
		UserID:            n.UserID.String(),
		Type:              string(n.Type),
		Title:             n.Title,
		Message:           n.Message,
		PropertyID:        n.PropertyID.String(),
		CommentID:         n.CommentID,
		OriginalCommentID: n.OriginalCommentID,
		CommenterID:       n.CommenterID.String(),
		CommenterName:     n.CommenterName,
		IsRead:            n.IsRead,
		CreatedAt:         n.CreatedAt,
	}
}

// notificationPageResponse — страница уведомлений.
type notificationPageResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	NextPageToken string                 `json:"next_page_token,omitempty"`
}

func notificationPageFromModel(page *models.NotificationPage) notificationPageResponse {
	out := notificationPageResponse{
		Notifications: make([]notificationResponse, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}

	for _, n := range page.Items {
		out.Notifications = append(out.Notifications, notificationFromModel(n))
	}

	return out
}
