package mongodb

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/task"
)

const coursesCollection = "courses"

type courseDoc struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Name   string             `bson:"name"`
	Code   string             `bson:"code"`
	UserID primitive.ObjectID `bson:"user_id"`
}

func newCourseDoc(crs course.Course) courseDoc {
	doc := courseDoc{Name: crs.Name, Code: crs.Code}
	if crs.ID != "" {
		doc.ID, _ = primitive.ObjectIDFromHex(crs.ID)
	}
	if crs.UserID != "" {
		doc.UserID, _ = primitive.ObjectIDFromHex(crs.UserID)
	}
	return doc
}

func (doc courseDoc) toCourse() course.Course {
	return course.Course{
		ID:     doc.ID.Hex(),
		Name:   doc.Name,
		Code:   doc.Code,
		UserID: doc.UserID.Hex(),
	}
}

type courseRepository struct {
	db *mongo.Database
}

var (
	_ course.Repository    = (*courseRepository)(nil) // interface compliance check
	_ task.CourseDirectory = (*courseRepository)(nil)
)

func NewCourseRepository(db *mongo.Database) course.Repository {
	return &courseRepository{db: db}
}

func NewCourseDirectory(db *mongo.Database) task.CourseDirectory {
	return &courseRepository{db: db}
}

func (repo *courseRepository) coll() *mongo.Collection { return repo.db.Collection(coursesCollection) }

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.coll().InsertOne(ctx, newCourseDoc(crs))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	crs.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return crs, nil
}

func (repo *courseRepository) QueryCoursesByUser(userID string) ([]course.Course, error) {
	oid, err := objectID(userID, course.ErrNotFound)
	if err != nil {
		return []course.Course{}, nil
	}
	return repo.findCourses(bson.M{"user_id": oid})
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	oid, err := objectID(id, course.ErrNotFound)
	if err != nil {
		return course.Course{}, err
	}
	return repo.getCourse(bson.M{"_id": oid})
}

func (repo *courseRepository) GetCourseByCode(userID, code string) (course.Course, error) {
	oid, err := objectID(userID, course.ErrNotFound)
	if err != nil {
		return course.Course{}, err
	}
	return repo.getCourse(bson.M{"user_id": oid, "code": code})
}

func (repo *courseRepository) getCourse(filter bson.M) (course.Course, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var doc courseDoc
	if err := repo.coll().FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return doc.toCourse(), nil
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	oid, err := objectID(crs.ID, course.ErrNotFound)
	if err != nil {
		return course.Course{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.coll().ReplaceOne(ctx, bson.M{"_id": oid}, newCourseDoc(crs))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if res.MatchedCount == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

// DeleteCourseByID removes the course and cascades to its tasks and their
// subtasks.
func (repo *courseRepository) DeleteCourseByID(id string) error {
	oid, err := objectID(id, course.ErrNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	taskColl := repo.db.Collection(tasksCollection)
	cur, err := taskColl.Find(ctx, bson.M{"course_id": oid}, findProjection("_id"))
	if err != nil {
		return errors.Wrap(err, "querying course tasks")
	}
	var taskRefs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cur.All(ctx, &taskRefs); err != nil {
		return errors.Wrap(err, "decoding course tasks")
	}

	if len(taskRefs) > 0 {
		taskIDs := make([]primitive.ObjectID, 0, len(taskRefs))
		for _, ref := range taskRefs {
			taskIDs = append(taskIDs, ref.ID)
		}
		if _, err = repo.db.Collection(subtasksCollection).
			DeleteMany(ctx, bson.M{"parent_task": bson.M{"$in": taskIDs}}); err != nil {
			return errors.Wrap(err, "deleting course subtasks")
		}
		if _, err = taskColl.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": taskIDs}}); err != nil {
			return errors.Wrap(err, "deleting course tasks")
		}
	}

	if _, err = repo.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo *courseRepository) GetCoursesByIDs(ids []string) ([]course.Course, error) {
	return repo.findCourses(bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
}

func (repo *courseRepository) findCourses(filter bson.M) ([]course.Course, error) {
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.coll().Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}

	courses := make([]course.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, doc.toCourse())
	}
	return courses, nil
}
