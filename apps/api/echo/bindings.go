package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/nkashama/duetrack/core"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string      `json:"token"`
		User  interface{} `json:"user"`
	}

	GoogleAuthRequest struct {
		IDToken   string `json:"id_token" validate:"required"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	TestAlertRequest struct {
		UserID   string `json:"userId"`
		TaskID   string `json:"taskId"`
		Title    string `json:"title"`
		DueAt    string `json:"dueAt"`
		DueTime  string `json:"dueTime"`
		CourseID string `json:"courseId"`
		Message  string `json:"message"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *GoogleAuthRequest) Validate(validate *validator.Validate) error {
	r.FirstName = core.CleanString(r.FirstName)
	r.LastName = core.CleanString(r.LastName)
	return validate.Struct(r)
}

func (r *PasswordResetRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}
