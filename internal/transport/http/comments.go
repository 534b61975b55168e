package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rently-app/discussions-service/internal/service"
	"github.com/rently-app/discussions-service/internal/transport/http/apierrors"
)

// createCommentRequest — тело POST /properties/{property_id}/comments.
// Владелец и заголовок объявления приходят от вызывающего (апстрим
// знает их из properties-сервиса) и нужны диспетчеру уведомлений.
type createCommentRequest struct {
	OwnerID       string `json:"owner_id"`
	PropertyTitle string `json:"property_title"`
	AuthorID      string `json:"author_id"`
	AuthorName    string `json:"author_name"`
	Content       string `json:"content"`
}

func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	propertyID, err := parseUUID(chi.URLParam(r, "property_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in createCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	ownerID, err := parseUUID(in.OwnerID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	authorID, err := parseUUID(in.AuthorID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	comment, effect, err := s.svc.CreateComment(r.Context(), service.CreateCommentInput{
		PropertyID:    propertyID,
		OwnerID:       ownerID,
		PropertyTitle: in.PropertyTitle,
		AuthorID:      authorID,
		AuthorName:    in.AuthorName,
		Content:       in.Content,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdFromModel(*comment, effect))
}

// createReplyRequest — тело POST /comments/{id}/replies.
// Корень ветки и объявление выводятся сервисом из целевого комментария.
type createReplyRequest struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

func (s *Server) CreateReply(w http.ResponseWriter, r *http.Request) {
	replyToID := chi.URLParam(r, "id")
	if replyToID == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in createReplyRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	authorID, err := parseUUID(in.AuthorID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	reply, effect, err := s.svc.CreateReply(r.Context(), service.CreateReplyInput{
		ReplyToID:  replyToID,
		AuthorID:   authorID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdFromModel(*reply, effect))
}

// updateCommentRequest — тело PATCH /comments/{id}.
type updateCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in updateCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	comment, err := s.svc.UpdateComment(r.Context(), id, in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentFromModel(*comment))
}

func (s *Server) PinComment(w http.ResponseWriter, r *http.Request) {
	s.setPinned(w, r, true)
}

func (s *Server) UnpinComment(w http.ResponseWriter, r *http.Request) {
	s.setPinned(w, r, false)
}

func (s *Server) setPinned(w http.ResponseWriter, r *http.Request, pinned bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	comment, err := s.svc.SetPinned(r.Context(), id, pinned)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, commentFromModel(*comment))
}

func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	if err := s.svc.DeleteComment(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// purgeResponse — итог teardown обсуждения объявления.
type purgeResponse struct {
	CommentsDeleted      int64 `json:"comments_deleted"`
	NotificationsDeleted int64 `json:"notifications_deleted"`
}

func (s *Server) PurgeDiscussion(w http.ResponseWriter, r *http.Request) {
	propertyID, err := parseUUID(chi.URLParam(r, "property_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	comments, notifications, err := s.svc.PurgeProperty(r.Context(), propertyID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{
		CommentsDeleted:      comments,
		NotificationsDeleted: notifications,
	})
}

func (s *Server) GetThread(w http.ResponseWriter, r *http.Request) {
	propertyID, err := parseUUID(chi.URLParam(r, "property_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	threads, err := s.svc.ThreadByProperty(r.Context(), propertyID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, threadListFromModel(threads))
}
