package user

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// UserHandler handles the self-service account endpoints. Admin CRUD is
// served by the generic resource handler registered in the module.
type UserHandler struct {
	repo domain.UserRepository
}

// NewHandler creates a new UserHandler.
func NewHandler(repo domain.UserRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

// GetMe handles GET /api/v1/users/me, returning the authenticated account.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := auth.UserFrom(c)
	if !ok {
		pkg.Error(c, domain.ErrNotAuthenticated)
		return
	}
	pkg.Success(c, user)
}

// UpdateMe handles PATCH /api/v1/users/updateMe. Password fields are
// rejected outright so the change-password checks cannot be bypassed.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := auth.UserFrom(c)
	if !ok {
		pkg.Error(c, domain.ErrNotAuthenticated)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid request body", err))
		return
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid request body", err))
		return
	}
	if _, found := raw["password"]; found {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "this route is not for password updates, please use /updateMyPassword", nil))
		return
	}
	if _, found := raw["passwordConfirm"]; found {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "this route is not for password updates, please use /updateMyPassword", nil))
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	var req UpdateMeRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Email != "" {
		fields["email"] = req.Email
	}
	if req.Photo != "" {
		fields["photo"] = req.Photo
	}
	if len(fields) == 0 {
		pkg.Success(c, user)
		return
	}

	updated, err := h.repo.UpdateProfile(c.Request.Context(), user.ID, fields)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, updated)
}

// DeleteMe handles DELETE /api/v1/users/deleteMe: the account is deactivated,
// not removed, so its reviews and bookings stay intact.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := auth.UserFrom(c)
	if !ok {
		pkg.Error(c, domain.ErrNotAuthenticated)
		return
	}

	if err := h.repo.Deactivate(c.Request.Context(), user.ID); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.NoContent(c)
}

// CreateUser handles POST /api/v1/users. Accounts are only created through
// signup, where credentials are hashed and a token is issued.
func (h *UserHandler) CreateUser(c *gin.Context) {
	pkg.Error(c, domain.NewAppError(domain.CodeValidation, "this route is not defined, please use /signup instead", nil))
}
