package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/nkashama/duetrack/core"
)

type Course struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

// NewCourse contains information needed to add a new Course.
type NewCourse struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate, svc ServiceInterface, userID string) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(userID, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name string `json:"name" validate:"omitempty"`
	Code string `json:"code" validate:"omitempty"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate, orig Course, svc ServiceInterface) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if code := core.CleanString(uc.Code); code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Code != orig.Code {
		return svc.CheckCodeUniqueness(orig.UserID, uc.Code)
	}
	return nil
}
