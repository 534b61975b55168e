package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rently-app/discussions-service/internal/service"
	"github.com/rently-app/discussions-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчик/латентность по шаблонам роутов
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	s := NewServer(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, s)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, s)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, s *Server) {
	// comments
	r.Post("/properties/{property_id}/comments", s.CreateComment)
	r.Post("/comments/{id}/replies", s.CreateReply)
	r.Patch("/comments/{id}", s.UpdateComment)
	r.Post("/comments/{id}/pin", s.PinComment)
	r.Delete("/comments/{id}/pin", s.UnpinComment)
	r.Delete("/comments/{id}", s.DeleteComment)

	// thread
	r.Get("/properties/{property_id}/thread", s.GetThread)
	r.Delete("/properties/{property_id}/discussion", s.PurgeDiscussion)

	// notifications
	r.Get("/users/{user_id}/notifications", s.ListNotifications)
	r.Get("/users/{user_id}/notifications/unread_count", s.UnreadCount)
	r.Post("/notifications/{id}/read", s.MarkNotificationRead)
	r.Post("/users/{user_id}/notifications/read_all", s.MarkAllNotificationsRead)
	r.Delete("/notifications/{id}", s.DeleteNotification)

	// profiles (проекция из users-сервиса)
	r.Get("/users/{user_id}/profile", s.GetProfile)
	r.Put("/users/{user_id}/profile", s.SaveProfile)
}
