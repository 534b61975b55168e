package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rently-app/discussions-service/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	commentsCollection      = "comments"
	notificationsCollection = "notifications"
	defaultDBName           = "discussions"
)

// Mongo — тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg           *config.Config
	client        *mongodriver.Client
	db            *mongodriver.Database
	comments      *mongodriver.Collection
	notifications *mongodriver.Collection
}

// New подключается к MongoDB, проверяет подключение, подготавливает
// коллекции и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.Mongo.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.Mongo.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(cfg.Mongo.URL)
	db := cli.Database(dbName)

	m := &Mongo{
		cfg:           cfg,
		client:        cli,
		db:            db,
		comments:      db.Collection(commentsCollection),
		notifications: db.Collection(notificationsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Comments возвращает репозиторий комментариев поверх общего подключения.
func (m *Mongo) Comments() *CommentsStorage {
	return &CommentsStorage{m: m}
}

// Notifications возвращает репозиторий уведомлений поверх общего подключения.
func (m *Mongo) Notifications() *NotificationsStorage {
	return &NotificationsStorage{m: m}
}

// ensureIndexes создаёт индексы, необходимые сервису обсуждений.
// Комментарии:
//   - выборка всего обсуждения: property_id + created_at(asc);
//   - поиск детей ветки: thread_id.
//
// Уведомления:
//   - лента получателя: user_id + created_at(desc);
//   - счётчик/выборка непрочитанных: user_id + is_read;
//   - teardown по объявлению: property_id.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	commentIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("property_created_asc"),
		},
		{
			Keys:    bson.D{{Key: "thread_id", Value: 1}},
			Options: options.Index().SetName("thread_id"),
		},
	}

	if _, err := m.comments.Indexes().CreateMany(ctx, commentIdx); err != nil {
		return fmt.Errorf("mongo ensure comment indexes: %w", err)
	}

	notificationIdx := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}},
			Options: options.Index().SetName("user_is_read"),
		},
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}},
			Options: options.Index().SetName("property_id"),
		},
	}

	if _, err := m.notifications.Indexes().CreateMany(ctx, notificationIdx); err != nil {
		return fmt.Errorf("mongo ensure notification indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддаётся расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
