package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"

	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
	"github.com/jirapatw/courselab-api/services/user-service/internal/usecase"
	"github.com/jirapatw/courselab-api/shared/middleware"
	"github.com/jirapatw/courselab-api/shared/utilities"
	"github.com/jirapatw/courselab-api/shared/validation"
)

// UserHTTPHandler serves the user management operations over HTTP.
type UserHTTPHandler struct {
	rbacUsecase usecase.RBACUsecase
	validator   *validation.Validator
	logger      *zerolog.Logger
}

// NewUserHTTPHandler creates a new UserHTTPHandler instance.
func NewUserHTTPHandler(
	logger *zerolog.Logger,
	validator *validation.Validator,
	rbacUsecase usecase.RBACUsecase,
) *UserHTTPHandler {
	return &UserHTTPHandler{
		rbacUsecase: rbacUsecase,
		validator:   validator,
		logger:      logger,
	}
}

// Routes returns the user routes. Email verification stays outside the
// auth middleware: the token in the link is the credential.
func (h *UserHTTPHandler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/email/verify", h.VerifyEmail)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/instructors", h.CreateInstructorAccount)
		r.Put("/{userID}/role", h.SetUserRole)
		r.Post("/{userID}/role/reconcile", h.ReconcileUserRole)
		r.Get("/me/role", h.VerifyUserRole)
	})

	return r
}

func (h *UserHTTPHandler) CreateInstructorAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, codes.Unauthenticated, usecase.ErrUnauthenticated.Error())
		return
	}

	var req CreateInstructorAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utilities.RespondError(w, codes.InvalidArgument, "invalid request body")
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		utilities.RespondError(w, codes.InvalidArgument, err.Error())
		return
	}

	id, err := h.rbacUsecase.CreateInstructorAccount(r.Context(), caller, usecase.CreateInstructorAccountParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create instructor account")

		switch {
		case errors.Is(err, usecase.ErrUnauthenticated):
			utilities.RespondError(w, codes.Unauthenticated, err.Error())
		case errors.Is(err, usecase.ErrPermissionDenied):
			utilities.RespondError(w, codes.PermissionDenied, err.Error())
		case errors.Is(err, usecase.ErrInstructorFieldsRequired), errors.Is(err, usecase.ErrWeakPassword):
			utilities.RespondError(w, codes.InvalidArgument, err.Error())
		default:
			utilities.RespondError(w, codes.Internal, err.Error())
		}
		return
	}

	utilities.RespondJSON(w, http.StatusOK, CreateInstructorAccountResponse{
		Success: true,
		ID:      id,
	})
}

func (h *UserHTTPHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, codes.Unauthenticated, usecase.ErrUnauthenticated.Error())
		return
	}

	var req SetUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utilities.RespondError(w, codes.InvalidArgument, "invalid request body")
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		utilities.RespondError(w, codes.InvalidArgument, err.Error())
		return
	}

	err := h.rbacUsecase.SetUserRole(r.Context(), caller, usecase.SetUserRoleParams{
		TargetID: chi.URLParam(r, "userID"),
		Role:     req.Role,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to set user role")

		switch {
		case errors.Is(err, usecase.ErrUnauthenticated):
			utilities.RespondError(w, codes.Unauthenticated, err.Error())
		case errors.Is(err, usecase.ErrPermissionDenied):
			utilities.RespondError(w, codes.PermissionDenied, err.Error())
		case errors.Is(err, usecase.ErrTargetRoleRequired), errors.Is(err, model.ErrInvalidRole):
			utilities.RespondError(w, codes.InvalidArgument, err.Error())
		case errors.Is(err, usecase.ErrUserNotFound):
			utilities.RespondError(w, codes.NotFound, err.Error())
		default:
			utilities.RespondError(w, codes.Internal, err.Error())
		}
		return
	}

	utilities.RespondJSON(w, http.StatusOK, SetUserRoleResponse{Success: true})
}

func (h *UserHTTPHandler) ReconcileUserRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, codes.Unauthenticated, usecase.ErrUnauthenticated.Error())
		return
	}

	repaired, err := h.rbacUsecase.ReconcileUserRole(r.Context(), caller, chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to reconcile user role")

		switch {
		case errors.Is(err, usecase.ErrUnauthenticated):
			utilities.RespondError(w, codes.Unauthenticated, err.Error())
		case errors.Is(err, usecase.ErrPermissionDenied):
			utilities.RespondError(w, codes.PermissionDenied, err.Error())
		case errors.Is(err, usecase.ErrTargetRequired):
			utilities.RespondError(w, codes.InvalidArgument, err.Error())
		case errors.Is(err, usecase.ErrUserNotFound):
			utilities.RespondError(w, codes.NotFound, err.Error())
		default:
			utilities.RespondError(w, codes.Internal, err.Error())
		}
		return
	}

	utilities.RespondJSON(w, http.StatusOK, ReconcileUserRoleResponse{
		Success:  true,
		Repaired: repaired,
	})
}

func (h *UserHTTPHandler) VerifyUserRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		utilities.RespondError(w, codes.Unauthenticated, usecase.ErrUnauthenticated.Error())
		return
	}

	verification, err := h.rbacUsecase.VerifyUserRole(r.Context(), caller)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to verify user role")

		switch {
		case errors.Is(err, usecase.ErrUnauthenticated):
			utilities.RespondError(w, codes.Unauthenticated, err.Error())
		default:
			utilities.RespondError(w, codes.Internal, err.Error())
		}
		return
	}

	utilities.RespondJSON(w, http.StatusOK, VerifyUserRoleResponse{
		ID:            verification.ID,
		Email:         verification.Email,
		DisplayName:   verification.DisplayName,
		Role:          verification.Role.String(),
		EmailVerified: verification.EmailVerified,
		CreatedAt:     verification.CreatedAt,
		CreatedBy:     verification.CreatedBy,
		UpdatedAt:     verification.UpdatedAt,
		UpdatedBy:     verification.UpdatedBy,
	})
}

func (h *UserHTTPHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utilities.RespondError(w, codes.InvalidArgument, "verification token is required")
		return
	}

	if err := h.rbacUsecase.VerifyEmail(r.Context(), token); err != nil {
		h.logger.Error().Err(err).Msg("failed to verify email")

		switch {
		case errors.Is(err, usecase.ErrInvalidVerificationToken):
			utilities.RespondError(w, codes.Unauthenticated, err.Error())
		case errors.Is(err, usecase.ErrUserNotFound):
			utilities.RespondError(w, codes.NotFound, err.Error())
		default:
			utilities.RespondError(w, codes.Internal, err.Error())
		}
		return
	}

	utilities.RespondJSON(w, http.StatusOK, VerifyEmailResponse{Success: true})
}
