package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type CreateUserRequest struct {
	Name string    `json:"name" validate:"required,max=100"`
	Role user.Role `json:"role" validate:"required,oneof=Admin RegularUser"`
}

type LoginRequest struct {
	Name string `json:"name" validate:"required"`
}

type UserResponse struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	Role user.Role `json:"role"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Role: u.Role}
}

type UserHandler struct {
	service  user.Service
	auth     *Auth
	validate *validator.Validate
}

func NewUserHandler(service user.Service, auth *Auth) *UserHandler {
	return &UserHandler{
		service:  service,
		auth:     auth,
		validate: newValidator(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Get("/usuarios", h.handleListUsers)
	router.Post("/usuarios", h.handleCreateUser)
	router.Post("/auth/login", h.handleLogin)
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	// The first user can be created by anyone.
	hasUsers, err := h.service.HasUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create user")
		return
	}
	if hasUsers {
		if err := h.auth.requireAdmin(r); err != nil {
			respondWithServiceError(w, err, "Failed to create user")
			return
		}
	}

	var requestPayload CreateUserRequest
	if err := decodeJSON(r, &requestPayload, false); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	created, err := h.service.CreateUser(r.Context(), user.CreateInput{
		Name: requestPayload.Name,
		Role: requestPayload.Role,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create user")
		return
	}
	respondWithJSON(w, http.StatusCreated, newUserResponse(created))
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list users")
		return
	}

	response := make([]UserResponse, 0, len(users))
	for i := range users {
		response = append(response, newUserResponse(&users[i]))
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if err := decodeJSON(r, &requestPayload, false); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	u, err := h.service.Login(r.Context(), requestPayload.Name)
	if err != nil {
		respondWithServiceError(w, err, "Failed to log in")
		return
	}

	log.Info().Int64("user_id", u.ID).Str("name", u.Name).Msg("User logged in")
	respondWithJSON(w, http.StatusOK, newUserResponse(u))
}
