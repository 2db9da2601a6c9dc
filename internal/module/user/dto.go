package user

// UpdateMeRequest is the request body for PATCH /api/v1/users/updateMe.
// Only profile fields are accepted here; password changes go through the
// dedicated endpoint.
type UpdateMeRequest struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
	Photo string `json:"photo" binding:"omitempty,max=255"`
}
