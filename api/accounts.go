package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eleave/leave-engine/auth"
	"github.com/eleave/leave-engine/generic"
)

// =============================================================================
// AUTH
// =============================================================================

// Register creates a student or admin account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "REGISTRATION_ERROR", "Failed to register user")
		return
	}

	role := generic.Role(req.Role)
	if role == generic.RoleStudent {
		if req.RollNumber == "" {
			writeError(w, http.StatusBadRequest, "ROLLNUMBER_REQUIRED", "Roll number is required for student registration")
			return
		}
		if req.Stream == "" {
			writeError(w, http.StatusBadRequest, "STREAM_REQUIRED", "Stream is required for student registration")
			return
		}
		if !generic.ValidStream(req.Stream) {
			writeError(w, http.StatusBadRequest, "INVALID_STREAM", "Stream must be one of: "+strings.Join(generic.Streams, ", "))
			return
		}
	} else {
		req.Stream, req.RollNumber = "", ""
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(w, r, err, "REGISTRATION_ERROR", "Failed to register user")
		return
	}

	user := generic.User{
		ID:           h.newID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		Stream:       req.Stream,
		RollNumber:   req.RollNumber,
		CreatedAt:    h.checker.Now(),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		h.fail(w, r, err, "REGISTRATION_ERROR", "Failed to register user")
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	writeOK(w, http.StatusCreated, envelope{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// Login exchanges email and password for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err, "LOGIN_ERROR", "Failed to authenticate user")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, generic.ErrUserNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if err != nil {
		h.fail(w, r, err, "LOGIN_ERROR", "Failed to authenticate user")
		return
	}

	token, expiresAt, err := h.issuer.Issue(user)
	if err != nil {
		h.fail(w, r, err, "LOGIN_ERROR", "Failed to authenticate user")
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      toUserDTO(user),
	})
}

// =============================================================================
// USERS
// =============================================================================

// ListUsers returns every account (admin).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err, "GET_USERS_ERROR", "Failed to fetch users")
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeOK(w, http.StatusOK, envelope{"users": dtos})
}

// GetUser returns one profile to its owner or an admin.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !caller(r).CanAccess(id) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this profile")
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "GET_USER_ERROR", "Failed to fetch user profile")
		return
	}
	writeOK(w, http.StatusOK, envelope{"user": toUserDTO(user)})
}

// DeleteUser removes an account and its leaves (admin, never oneself).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if caller(r).UserID == id {
		writeError(w, http.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own account")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		h.fail(w, r, err, "DELETE_USER_ERROR", "Failed to delete user")
		return
	}
	if err := h.users.DeleteUser(ctx, id); err != nil {
		h.fail(w, r, err, "DELETE_USER_ERROR", "Failed to delete user")
		return
	}

	removed, err := h.leaves.DeleteLeavesByUser(ctx, id)
	if err != nil {
		// The account is gone; orphaned leaves no longer count toward anyone.
		h.logger.Error("delete user leaves failed", zap.String("user_id", id), zap.Error(err))
	}
	h.checker.Invalidate(ctx, id)

	writeOK(w, http.StatusOK, envelope{
		"message": "User account deleted successfully",
		"deletedUser": envelope{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
		"deletedLeaves": removed,
	})
}
