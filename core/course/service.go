package course

import (
	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrCodeExists = errors.New("a course with this code already exists")
)

type (
	// Repository persists courses. DeleteCourseByID cascades: the course's
	// tasks (and their subtasks) are removed along with it.
	Repository interface {
		CreateCourse(crs Course) (Course, error)
		QueryCoursesByUser(userID string) ([]Course, error)
		GetCourseByID(id string) (Course, error)
		GetCourseByCode(userID, code string) (Course, error)
		UpdateCourse(crs Course) (Course, error)
		DeleteCourseByID(id string) error
	}

	ServiceInterface interface {
		CheckCodeUniqueness(userID, code string) error
		Add(userID string, nc NewCourse) (Course, error)
		QueryForUser(userID string) ([]Course, error)
		GetByID(id string) (Course, error)
		GetByCode(userID, code string) (Course, error)
		Update(orig Course, uc UpdateCourse) (Course, error)
		Delete(id string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckCodeUniqueness(userID, code string) error {
	if _, err := svc.repo.GetCourseByCode(userID, code); err == nil {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	} else if err != ErrNotFound {
		return err
	}
	return nil
}

func (svc *Service) Add(userID string, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(Course{
		Name:   nc.Name,
		Code:   nc.Code,
		UserID: userID,
	})
}

func (svc *Service) QueryForUser(userID string) ([]Course, error) {
	return svc.repo.QueryCoursesByUser(userID)
}

func (svc *Service) GetByID(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) GetByCode(userID, code string) (Course, error) {
	return svc.repo.GetCourseByCode(userID, core.CleanString(code))
}

func (svc *Service) Update(orig Course, uc UpdateCourse) (Course, error) {
	orig.Name = uc.Name
	orig.Code = uc.Code
	return svc.repo.UpdateCourse(orig)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteCourseByID(id)
}
