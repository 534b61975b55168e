package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/rently-app/discussions-service/internal/storage"
)

// AvatarURL возвращает URL аватара по ключу объекта.
//   - пустой ключ — пустая строка без ошибки (аватар не задан);
//   - если PublicBaseURL задан, URL собирается без похода в S3;
//   - иначе проверяем существование объекта и выдаём presigned GET
//     с TTL из конфига.
//
// Отсутствие объекта по ненулевому ключу — storage.ErrNotFound
// (вызывающая сторона деградирует к профилю без аватара).
func (s *AvatarsStorage) AvatarURL(ctx context.Context, key string) (string, error) {
	const op = "storage/minio/avatars/AvatarURL"

	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}

	if base := strings.TrimRight(s.cfg.S3.PublicBaseURL, "/"); base != "" {
		return base + "/" + key, nil
	}

	if _, err := s.client.StatObject(ctx, s.cfg.S3.Bucket, key, mclient.StatObjectOptions{}); err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: stat: %w", op, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.cfg.S3.Bucket, key, s.cfg.S3.PresignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%s: presign: %w", op, err)
	}

	return u.String(), nil
}
