package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rently-app/discussions-service/internal/service"
	"github.com/rently-app/discussions-service/internal/transport/http/apierrors"
)

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "user_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	in := service.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		PageToken:  r.URL.Query().Get("page_token"),
	}

	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}

		in.PageSize = int32(n)
	}

	page, err := s.svc.NotificationsByUser(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, notificationPageFromModel(page))
}

// unreadCountResponse — счётчик для бейджа.
type unreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

func (s *Server) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "user_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	count := s.svc.UnreadCount(r.Context(), userID)

	writeJSON(w, http.StatusOK, unreadCountResponse{UnreadCount: count})
}

func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if err := s.svc.MarkAsRead(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// markAllResponse — число фактически переведённых уведомлений.
type markAllResponse struct {
	MarkedRead int64 `json:"marked_read"`
}

func (s *Server) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "user_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	done, err := s.svc.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, markAllResponse{MarkedRead: done})
}

func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if err := s.svc.DeleteNotification(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
