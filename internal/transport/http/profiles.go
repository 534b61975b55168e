package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rently-app/discussions-service/internal/service"
	"github.com/rently-app/discussions-service/internal/transport/http/apierrors"
)

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "user_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	profile, err := s.svc.ProfileByID(r.Context(), userID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileFromModel(profile))
}

// saveProfileRequest — тело PUT /users/{user_id}/profile.
// Эндпойнт обслуживает проекцию из users-сервиса, не публичный API.
type saveProfileRequest struct {
	Username  string `json:"username"`
	AvatarKey string `json:"avatar_key"`
}

func (s *Server) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUID(chi.URLParam(r, "user_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in saveProfileRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	profile, err := s.svc.SaveProfile(r.Context(), service.SaveProfileInput{
		UserID:    userID,
		Username:  in.Username,
		AvatarKey: in.AvatarKey,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileFromModel(profile))
}
