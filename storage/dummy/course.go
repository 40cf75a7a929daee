package dummydb

import (
	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/task"
)

type courseRepository struct {
	db *DB
}

var (
	_ course.Repository    = (*courseRepository)(nil) // interface compliance check
	_ task.CourseDirectory = (*courseRepository)(nil)
)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func NewCourseDirectory(db *DB) task.CourseDirectory {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	repo.db.course.Lock()
	defer repo.db.course.Unlock()

	crs.ID = newID()
	repo.db.course.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCoursesByUser(userID string) ([]course.Course, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.db.course.table {
		if crs.UserID == userID {
			courses = append(courses, *crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	if crs, ok := repo.db.course.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseByCode(userID, code string) (course.Course, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	for _, crs := range repo.db.course.table {
		if crs.UserID == userID && crs.Code == code {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	repo.db.course.Lock()
	defer repo.db.course.Unlock()

	if _, ok := repo.db.course.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.course.table[crs.ID] = &crs
	return crs, nil
}

// DeleteCourseByID removes the course and cascades to its tasks and their
// subtasks.
func (repo *courseRepository) DeleteCourseByID(id string) error {
	repo.db.task.RLock()
	var taskIDs []string
	for _, tsk := range repo.db.task.table {
		if tsk.CourseID == id {
			taskIDs = append(taskIDs, tsk.ID)
		}
	}
	repo.db.task.RUnlock()

	tskRepo := &taskRepository{db: repo.db}
	for _, tskID := range taskIDs {
		if err := tskRepo.DeleteTaskByID(tskID); err != nil {
			return err
		}
	}

	repo.db.course.Lock()
	defer repo.db.course.Unlock()
	delete(repo.db.course.table, id)
	return nil
}

func (repo *courseRepository) GetCoursesByIDs(ids []string) ([]course.Course, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	courses := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		if crs, ok := repo.db.course.table[id]; ok {
			courses = append(courses, *crs)
		}
	}
	return courses, nil
}
