package handlers

import (
	"encoding/json"
	"net/http"

	"chosei-backend/internal/middleware"
	"chosei-backend/internal/models"
	"chosei-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles authentication and profile HTTP requests
type UserHandler struct {
	userService   *services.UserService
	avatarService *services.AvatarService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, avatarService *services.AvatarService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
	}
}

// AuthCallbackRequest carries the identity provider's access token
type AuthCallbackRequest struct {
	AccessToken string `json:"access_token"`
}

// AuthCallbackResponse is the signed-in user plus a session token
type AuthCallbackResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthCallback handles POST /api/v1/auth/callback. It verifies the
// provider token, upserts the user it describes and issues a session
// token.
func (h *UserHandler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AuthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccessToken == "" {
		respondError(w, "access_token is required", http.StatusBadRequest)
		return
	}

	identity, err := h.userService.ValidateProviderToken(req.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("Failed to validate provider token")
		respondError(w, "Invalid access token", http.StatusUnauthorized)
		return
	}

	user, sessionToken, err := h.userService.SignIn(ctx, identity)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.ID).Msg("Failed to sign in user")
		respondError(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed in")

	respondJSON(w, AuthCallbackResponse{User: user, Token: sessionToken}, http.StatusOK)
}

// GetMe handles GET /api/v1/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		respondError(w, "Failed to get user", statusFromError(err))
		return
	}

	respondJSON(w, user, http.StatusOK)
}

// UpdateMeRequest carries profile fields to update; absent fields are
// left untouched.
type UpdateMeRequest struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateMe handles PATCH /api/v1/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name != nil && *req.Name == "" {
		respondError(w, "name must not be empty", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateProfile(ctx, userID, req.Name, req.Bio, req.AvatarURL)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondError(w, "Failed to update profile", statusFromError(err))
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")

	respondJSON(w, user, http.StatusOK)
}

// UploadAvatarRequest asks for a pre-signed upload URL
type UploadAvatarRequest struct {
	ContentType string `json:"content_type"`
}

// UploadAvatar handles POST /api/v1/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	response, err := h.avatarService.PresignUpload(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate pre-signed URL")
		respondError(w, "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Msg("Avatar upload URL generated")

	respondJSON(w, response, http.StatusOK)
}

// UpdatePushTokenRequest registers or clears a device push token
type UpdatePushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// UpdatePushToken handles PUT /api/v1/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdatePushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update push token")
		respondError(w, "Failed to update push token", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
