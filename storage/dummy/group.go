package dummydb

import (
	"github.com/nkashama/duetrack/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(grp group.Group) (group.Group, error) {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	grp.ID = newID()
	repo.db.group.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) QueryGroupsByUser(userID string) ([]group.Group, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	groups := make([]group.Group, 0)
	for _, grp := range repo.db.group.table {
		if grp.HasMember(userID) {
			groups = append(groups, *grp)
		}
	}
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(id string) (group.Group, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	if grp, ok := repo.db.group.table[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(grp group.Group) (group.Group, error) {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	if _, ok := repo.db.group.table[grp.ID]; !ok {
		return group.Group{}, group.ErrNotFound
	}
	repo.db.group.table[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) DeleteGroupByID(id string) error {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()
	delete(repo.db.group.table, id)
	return nil
}
