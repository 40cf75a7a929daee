package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/user"
)

const usersCollection = "users"

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	IsActive     bool               `bson:"is_active"`
	GoogleID     string             `bson:"google_id,omitempty"`
	IsGoogleUser bool               `bson:"is_google_user"`
	PasswordHash []byte             `bson:"password_hash,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	LastLogin    time.Time          `bson:"last_login,omitempty"`
}

func newUserDoc(usr user.User) userDoc {
	doc := userDoc{
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		GoogleID:     usr.GoogleID,
		IsGoogleUser: usr.IsGoogleUser,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}
	if usr.ID != "" {
		doc.ID, _ = primitive.ObjectIDFromHex(usr.ID)
	}
	return doc
}

func (doc userDoc) toUser() user.User {
	return user.User{
		ID:           doc.ID.Hex(),
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		Email:        doc.Email,
		IsActive:     doc.IsActive,
		GoogleID:     doc.GoogleID,
		IsGoogleUser: doc.IsGoogleUser,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		LastLogin:    doc.LastLogin,
	}
}

type userRepository struct {
	db *mongo.Database
}

var (
	_ user.Repository     = (*userRepository)(nil) // interface compliance check
	_ group.UserDirectory = (*userRepository)(nil)
)

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{db: db}
}

func NewUserDirectory(db *mongo.Database) group.UserDirectory {
	return &userRepository{db: db}
}

func (repo *userRepository) coll() *mongo.Collection { return repo.db.Collection(usersCollection) }

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	ctx, cancel := opCtx()
	defer cancel()

	filter := bson.M{"email": email}
	if len(excludedUsers) > 0 {
		excluded := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			excluded = append(excluded, usr.ID)
		}
		filter["_id"] = bson.M{"$nin": objectIDs(excluded)}
	}

	n, err := repo.coll().CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	doc := newUserDoc(usr)
	res, err := repo.coll().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return usr, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	oid, err := objectID(id, user.ErrNotFound)
	if err != nil {
		return user.User{}, err
	}
	return repo.getUser(bson.M{"_id": oid})
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(bson.M{"email": email})
}

func (repo *userRepository) getUser(filter bson.M) (user.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var doc userDoc
	if err := repo.coll().FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return doc.toUser(), nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	oid, err := objectID(usr.ID, user.ErrNotFound)
	if err != nil {
		return user.User{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	doc := newUserDoc(usr)
	res, err := repo.coll().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

// DeleteUserByID removes the account and everything it owns: courses,
// tasks (with their subtasks) and groups the user created.
func (repo *userRepository) DeleteUserByID(id string) error {
	oid, err := objectID(id, user.ErrNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	taskColl := repo.db.Collection(tasksCollection)
	cur, err := taskColl.Find(ctx, bson.M{"user_id": oid}, findProjection("_id"))
	if err != nil {
		return errors.Wrap(err, "querying user tasks")
	}
	var taskRefs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cur.All(ctx, &taskRefs); err != nil {
		return errors.Wrap(err, "decoding user tasks")
	}
	taskIDs := make([]primitive.ObjectID, 0, len(taskRefs))
	for _, ref := range taskRefs {
		taskIDs = append(taskIDs, ref.ID)
	}

	if len(taskIDs) > 0 {
		if _, err = repo.db.Collection(subtasksCollection).
			DeleteMany(ctx, bson.M{"parent_task": bson.M{"$in": taskIDs}}); err != nil {
			return errors.Wrap(err, "deleting user subtasks")
		}
	}
	if _, err = taskColl.DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
		return errors.Wrap(err, "deleting user tasks")
	}
	if _, err = repo.db.Collection(coursesCollection).DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
		return errors.Wrap(err, "deleting user courses")
	}
	if _, err = repo.db.Collection(groupsCollection).DeleteMany(ctx, bson.M{"created_by": oid}); err != nil {
		return errors.Wrap(err, "deleting user groups")
	}
	if _, err = repo.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}

func (repo *userRepository) FindUsersByEmails(emails []string) ([]user.User, error) {
	return repo.findUsers(bson.M{"email": bson.M{"$in": emails}})
}

func (repo *userRepository) FindUsersByIDs(ids []string) ([]user.User, error) {
	return repo.findUsers(bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
}

func (repo *userRepository) findUsers(filter bson.M) ([]user.User, error) {
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.coll().Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}

	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toUser())
	}
	return users, nil
}
