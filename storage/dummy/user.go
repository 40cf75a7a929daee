package dummydb

import (
	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/user"
)

type userRepository struct {
	db *DB
}

var (
	_ user.Repository     = (*userRepository)(nil) // interface compliance check
	_ group.UserDirectory = (*userRepository)(nil)
)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func NewUserDirectory(db *DB) group.UserDirectory {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.user.table))
	for _, usr := range repo.db.user.table {
		users = append(users, *usr)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = true
	}
	for _, usr := range repo.query() {
		if usr.Email == email && !excluded[usr.ID] {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	usr.ID = newID()
	repo.db.user.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	if _, ok := repo.db.user.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.user.table[usr.ID] = &usr
	return usr, nil
}

// DeleteUserByID removes the account and everything it owns: courses,
// tasks (with their subtasks) and groups the user created.
func (repo *userRepository) DeleteUserByID(id string) error {
	repo.db.course.RLock()
	var courseIDs []string
	for _, crs := range repo.db.course.table {
		if crs.UserID == id {
			courseIDs = append(courseIDs, crs.ID)
		}
	}
	repo.db.course.RUnlock()

	crsRepo := &courseRepository{db: repo.db}
	for _, crsID := range courseIDs {
		if err := crsRepo.DeleteCourseByID(crsID); err != nil {
			return err
		}
	}

	repo.db.task.RLock()
	var taskIDs []string
	for _, tsk := range repo.db.task.table {
		if tsk.UserID == id {
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

	repo.db.group.Lock()
	for grpID, grp := range repo.db.group.table {
		if grp.CreatedBy == id {
			delete(repo.db.group.table, grpID)
		}
	}
	repo.db.group.Unlock()

	repo.db.user.Lock()
	defer repo.db.user.Unlock()
	delete(repo.db.user.table, id)
	return nil
}

func (repo *userRepository) FindUsersByEmails(emails []string) ([]user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	wanted := make(map[string]bool, len(emails))
	for _, email := range emails {
		wanted[email] = true
	}
	var users []user.User
	for _, usr := range repo.query() {
		if wanted[usr.Email] {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) FindUsersByIDs(ids []string) ([]user.User, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	var users []user.User
	for _, id := range ids {
		if usr, ok := repo.db.user.table[id]; ok {
			users = append(users, *usr)
		}
	}
	return users, nil
}
