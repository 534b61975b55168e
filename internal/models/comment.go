// Package models содержит доменные сущности discussions-сервиса.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment — внутренняя доменная модель комментария к объявлению (MongoDB).
// Важно:
//   - ID — ObjectID MongoDB. Наружу/вовнутрь конвертируется в string.
//   - PropertyID/AuthorID — UUID из смежных сервисов (properties/users).
//   - ThreadID — ObjectID корневого (top-level) комментария ветки; у корня пустой.
//     Любой ответ, независимо от логической глубины, хранит именно корень —
//     сознательная денормализация, дерево восстанавливается в памяти.
//   - ReplyToID — ObjectID комментария, на который дан ответ (для UI «в ответ на»);
//     может отличаться от ThreadID в глубоких ветках. У корня пустой.
//   - Pinned/PinnedAt — закрепление доступно только корневым комментариям;
//     одновременно закреплённых может быть несколько, сортировка это учитывает.
//   - CreatedAt/UpdatedAt — всегда в UTC.
type Comment struct {
	ID         string
	PropertyID uuid.UUID
	AuthorID   uuid.UUID
	AuthorName string
	Content    string
	ThreadID   string
	ReplyToID  string
	Pinned     bool
	PinnedAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsTopLevel сообщает, является ли комментарий корнем ветки.
func (c Comment) IsTopLevel() bool {
	return c.ThreadID == ""
}

// Thread — эфемерный узел дерева обсуждения (не персистится).
// Author — снапшот профиля автора для рендера; nil, если профиль
// недоступен (деградация, не ошибка).
type Thread struct {
	Comment
	Author  *Profile
	Replies []Thread
}

// ListParams — базовые параметры постраничной выдачи.
type ListParams struct {
	PageSize  int32
	PageToken string
}
