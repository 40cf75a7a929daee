package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nkashama/duetrack/core"
)

const (
	connectTimeout = 10 * time.Second
	pingRetries    = 5
	pingBackoff    = 2 * time.Second

	opTimeout = 5 * time.Second
)

// Open connects to MongoDB and pings until the deployment is reachable,
// retrying a few times to ride out container start-up races.
func Open(conf core.DatabaseConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}

	for i := 0; ; i++ {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), opTimeout)
		err = client.Ping(pingCtx, readpref.Primary())
		pingCancel()
		if err == nil {
			break
		}
		if i >= pingRetries {
			return nil, errors.Wrap(err, "pinging mongodb")
		}
		time.Sleep(pingBackoff)
	}
	return client.Database(conf.Name), nil
}

// EnsureIndexes creates the indexes the repositories rely on. Safe to call
// on every start.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := opCtx()
	defer cancel()

	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "code", Value: 1}}, Options: unique},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
		},
		subtasksCollection: {
			{Keys: bson.D{{Key: "parent_task", Value: 1}}},
		},
		groupsCollection: {
			{Keys: bson.D{{Key: "member_ids", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// objectID parses a hex document ID; notFound is returned for malformed
// IDs so callers treat them as missing documents rather than bad requests.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

func findProjection(fields ...string) *options.FindOptions {
	proj := bson.M{}
	for _, field := range fields {
		proj[field] = 1
	}
	return options.Find().SetProjection(proj)
}

func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

func hexIDs(oids []primitive.ObjectID) []string {
	if len(oids) == 0 {
		return nil
	}
	ids := make([]string, 0, len(oids))
	for _, oid := range oids {
		ids = append(ids, oid.Hex())
	}
	return ids
}
