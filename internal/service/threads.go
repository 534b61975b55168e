package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rently-app/discussions-service/pkg/log"

	"github.com/rently-app/discussions-service/internal/models"
)

// ThreadByProperty — обсуждение объявления в виде дерева.
//
// Поведение:
//   - ошибка чтения деградирует к пустому результату (логируется, наружу
//     не отдаётся): рендеру всё равно, «нет данных» или «не смогли прочитать»;
//   - к каждому узлу прикрепляется снапшот профиля автора; недоступный
//     профиль — nil, сборка не прерывается.
func (s *Service) ThreadByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Thread, error) {
	const op = "service/threads/ThreadByProperty"

	lg := log.From(ctx).With("op", op, "property_id", propertyID.String())

	if propertyID == uuid.Nil {
		lg.Warn("invalid argument: empty property_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comments, err := s.comments.ListByProperty(ctx, propertyID)
	if err != nil {
		lg.Error("storage error on ListByProperty, degrading to empty thread", "err", err)
		return []models.Thread{}, nil
	}

	threads := buildThreads(comments, s.cfg.Limits.MaxDepth)

	profiles := s.fetchProfiles(ctx, authorIDs(comments))
	for i := range threads {
		attachAuthors(&threads[i], profiles)
	}

	return threads, nil
}

// buildThreads — чистая сборка дерева из плоского списка.
//
// Правила:
//   - корни: pinned первыми; внутри pin-группы — новые первыми
//     (created_at DESC, id DESC при равенстве);
//   - ответы на любой глубине: старые первыми (created_at ASC, id ASC);
//   - сироты (thread_id указывает на отсутствующий id) молча исключаются —
//     принятая издержка качества данных, сборщик её не чинит;
//   - maxDepth — предохранитель от битых данных: при корректной
//     денормализации (все ответы хранят корень) глубина рекурсии равна 1.
func buildThreads(comments []models.Comment, maxDepth int32) []models.Thread {
	var roots []models.Comment
	children := make(map[string][]models.Comment)

	for _, c := range comments {
		if c.IsTopLevel() {
			roots = append(roots, c)
			continue
		}

		children[c.ThreadID] = append(children[c.ThreadID], c)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].Pinned != roots[j].Pinned {
			return roots[i].Pinned
		}

		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}

		return roots[i].ID > roots[j].ID
	})

	out := make([]models.Thread, 0, len(roots))
	for _, root := range roots {
		out = append(out, buildNode(root, children, 0, maxDepth))
	}

	return out
}

// buildNode рекурсивно собирает узел и его ответы.
func buildNode(c models.Comment, children map[string][]models.Comment, depth, maxDepth int32) models.Thread {
	node := models.Thread{Comment: c}

	if depth >= maxDepth {
		return node
	}

	replies := children[c.ID]
	if len(replies) == 0 {
		return node
	}

	sort.SliceStable(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}

		return replies[i].ID < replies[j].ID
	})

	node.Replies = make([]models.Thread, 0, len(replies))
	for _, r := range replies {
		node.Replies = append(node.Replies, buildNode(r, children, depth+1, maxDepth))
	}

	return node
}

// authorIDs возвращает уникальные идентификаторы авторов батча.
func authorIDs(comments []models.Comment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(comments))
	ids := make([]uuid.UUID, 0, len(comments))

	for _, c := range comments {
		if c.AuthorID == uuid.Nil {
			continue
		}

		if _, ok := seen[c.AuthorID]; ok {
			continue
		}

		seen[c.AuthorID] = struct{}{}
		ids = append(ids, c.AuthorID)
	}

	return ids
}

// fetchProfiles загружает снапшоты профилей: один запрос на уникального
// автора, конкурентно с ограничением cfg.Limits.ProfileFetch.
// Результат — явный кэш на один вызов сборки; неудачные загрузки дают
// nil-профиль и warn в лог, общий результат не ломают.
func (s *Service) fetchProfiles(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]*models.Profile {
	const op = "service/threads/fetchProfiles"

	lg := log.From(ctx)

	out := make(map[uuid.UUID]*models.Profile, len(ids))
	if len(ids) == 0 {
		return out
	}

	var mu sync.Mutex
	sem := make(chan struct{}, s.cfg.Limits.ProfileFetch)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		userID := id
		sem <- struct{}{}

		go func() {
			defer func() {
				<-sem
			}()

			profile, err := s.profiles.ProfileByID(ctx, userID)
			if err != nil {
				lg.Warn("profile fetch failed, degrading to nil",
					"op", op,
					"user_id", userID.String(),
					"err", err,
				)
				profile = nil
			}

			if profile != nil {
				// URL аватара — тоже best-effort.
				if url, aerr := s.avatars.AvatarURL(ctx, profile.AvatarKey); aerr == nil {
					profile.AvatarURL = url
				} else {
					lg.Warn("avatar url resolve failed",
						"op", op,
						"user_id", userID.String(),
						"err", aerr,
					)
				}
			}

			mu.Lock()
			out[userID] = profile
			mu.Unlock()
		}()
	}

	// Дожидаемся всех воркеров.
	for i := 0; i < cap(sem); i++ {
		sem <- struct{}{}
	}

	return out
}

// attachAuthors рекурсивно прикрепляет снапшоты профилей к узлам дерева.
func attachAuthors(node *models.Thread, profiles map[uuid.UUID]*models.Profile) {
	node.Author = profiles[node.AuthorID]

	for i := range node.Replies {
		attachAuthors(&node.Replies[i], profiles)
	}
}
