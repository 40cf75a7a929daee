package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nkashama/duetrack/core/group"
)

const groupsCollection = "groups"

type groupDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Name      string               `bson:"name"`
	MemberIDs []primitive.ObjectID `bson:"member_ids,omitempty"`
	CreatedBy primitive.ObjectID   `bson:"created_by"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func newGroupDoc(grp group.Group) groupDoc {
	doc := groupDoc{
		Name:      grp.Name,
		MemberIDs: objectIDs(grp.MemberIDs),
		CreatedAt: grp.CreatedAt,
		UpdatedAt: grp.UpdatedAt,
	}
	if grp.ID != "" {
		doc.ID, _ = primitive.ObjectIDFromHex(grp.ID)
	}
	if grp.CreatedBy != "" {
		doc.CreatedBy, _ = primitive.ObjectIDFromHex(grp.CreatedBy)
	}
	return doc
}

func (doc groupDoc) toGroup() group.Group {
	return group.Group{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		MemberIDs: hexIDs(doc.MemberIDs),
		CreatedBy: doc.CreatedBy.Hex(),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

type groupRepository struct {
	db *mongo.Database
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *mongo.Database) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) coll() *mongo.Collection { return repo.db.Collection(groupsCollection) }

func (repo *groupRepository) CreateGroup(grp group.Group) (group.Group, error) {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.coll().InsertOne(ctx, newGroupDoc(grp))
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	grp.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return grp, nil
}

func (repo *groupRepository) QueryGroupsByUser(userID string) ([]group.Group, error) {
	oid, err := objectID(userID, group.ErrNotFound)
	if err != nil {
		return []group.Group{}, nil
	}

	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.coll().Find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"member_ids": oid},
			bson.M{"created_by": oid},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	var docs []groupDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding groups")
	}

	groups := make([]group.Group, 0, len(docs))
	for _, doc := range docs {
		groups = append(groups, doc.toGroup())
	}
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(id string) (group.Group, error) {
	oid, err := objectID(id, group.ErrNotFound)
	if err != nil {
		return group.Group{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	var doc groupDoc
	if err := repo.coll().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "getting group")
	}
	return doc.toGroup(), nil
}

func (repo *groupRepository) UpdateGroup(grp group.Group) (group.Group, error) {
	oid, err := objectID(grp.ID, group.ErrNotFound)
	if err != nil {
		return group.Group{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.coll().ReplaceOne(ctx, bson.M{"_id": oid}, newGroupDoc(grp))
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if res.MatchedCount == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return grp, nil
}

func (repo *groupRepository) DeleteGroupByID(id string) error {
	oid, err := objectID(id, group.ErrNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	if _, err = repo.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return nil
}
