package group

import (
	"time"

	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("group not found")
)

// UnknownEmailsError reports member emails that do not correspond to existing users.
type UnknownEmailsError struct {
	Missing []string
}

func (err UnknownEmailsError) Error() string {
	return "some member emails do not correspond to existing users"
}

type (
	Repository interface {
		CreateGroup(grp Group) (Group, error)
		QueryGroupsByUser(userID string) ([]Group, error) // member or creator
		GetGroupByID(id string) (Group, error)
		UpdateGroup(grp Group) (Group, error)
		DeleteGroupByID(id string) error
	}

	// UserDirectory resolves group member emails/ids to accounts.
	UserDirectory interface {
		FindUsersByEmails(emails []string) ([]user.User, error)
		FindUsersByIDs(ids []string) ([]user.User, error)
	}

	ServiceInterface interface {
		Create(createdBy string, ng NewGroup) (Detail, error)
		QueryForUser(userID string) ([]Detail, error)
		GetByID(id string) (Detail, error)
		Update(orig Group, ug UpdateGroup) (Detail, error)
		Delete(id string) error
	}

	Service struct {
		repo  Repository
		users UserDirectory
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// resolveEmails maps member emails to user IDs; unknown emails are an UnknownEmailsError.
func (svc *Service) resolveEmails(emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	usrs, err := svc.users.FindUsersByEmails(emails)
	if err != nil {
		return nil, err
	}

	found := make(map[string]string, len(usrs)) // email -> id
	for _, usr := range usrs {
		found[usr.Email] = usr.ID
	}

	var missing []string
	ids := make([]string, 0, len(emails))
	for _, email := range emails {
		id, ok := found[email]
		if !ok {
			missing = append(missing, email)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, UnknownEmailsError{Missing: missing}
	}
	return ids, nil
}

func (svc *Service) detail(grp Group) (Detail, error) {
	det := Detail{Group: grp}
	if len(grp.MemberIDs) == 0 {
		det.Members = []Member{}
		return det, nil
	}

	usrs, err := svc.users.FindUsersByIDs(grp.MemberIDs)
	if err != nil {
		return Detail{}, err
	}
	det.Members = make([]Member, 0, len(usrs))
	for _, usr := range usrs {
		det.Members = append(det.Members, Member{
			ID:        usr.ID,
			FirstName: usr.FirstName,
			LastName:  usr.LastName,
			Email:     usr.Email,
		})
	}
	return det, nil
}

func (svc *Service) Create(createdBy string, ng NewGroup) (Detail, error) {
	memberIDs, err := svc.resolveEmails(ng.MemberEmails)
	if err != nil {
		return Detail{}, err
	}

	now := time.Now().UTC()
	grp, err := svc.repo.CreateGroup(Group{
		Name:      ng.Name,
		MemberIDs: memberIDs,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Detail{}, err
	}
	return svc.detail(grp)
}

func (svc *Service) QueryForUser(userID string) ([]Detail, error) {
	grps, err := svc.repo.QueryGroupsByUser(userID)
	if err != nil {
		return nil, err
	}

	dets := make([]Detail, 0, len(grps))
	for _, grp := range grps {
		det, err := svc.detail(grp)
		if err != nil {
			return nil, err
		}
		dets = append(dets, det)
	}
	return dets, nil
}

func (svc *Service) GetByID(id string) (Detail, error) {
	grp, err := svc.repo.GetGroupByID(id)
	if err != nil {
		return Detail{}, err
	}
	return svc.detail(grp)
}

func (svc *Service) Update(orig Group, ug UpdateGroup) (Detail, error) {
	if ug.Name != "" {
		orig.Name = ug.Name
	}

	addIDs, err := svc.resolveEmails(ug.AddMemberEmails)
	if err != nil {
		return Detail{}, err
	}

	members := make([]string, 0, len(orig.MemberIDs)+len(addIDs))
	seen := make(map[string]bool, len(orig.MemberIDs)+len(addIDs))
	removed := make(map[string]bool, len(ug.RemoveMemberIDs))
	for _, id := range ug.RemoveMemberIDs {
		removed[id] = true
	}
	for _, id := range append(orig.MemberIDs, addIDs...) {
		if seen[id] || removed[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	orig.MemberIDs = members
	orig.UpdatedAt = time.Now().UTC()

	grp, err := svc.repo.UpdateGroup(orig)
	if err != nil {
		return Detail{}, err
	}
	return svc.detail(grp)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteGroupByID(id)
}
