package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nkashama/duetrack/core/task"
)

const (
	tasksCollection    = "tasks"
	subtasksCollection = "subtasks"
)

type taskDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description,omitempty"`
	DueDate     time.Time            `bson:"due_date"`
	DueTime     string               `bson:"due_time"`
	Status      string               `bson:"status"`
	GroupStatus string               `bson:"group_status"`
	CourseID    primitive.ObjectID   `bson:"course_id,omitempty"`
	UserID      primitive.ObjectID   `bson:"user_id"`
	SharedWith  []primitive.ObjectID `bson:"shared_with,omitempty"`
	GroupID     primitive.ObjectID   `bson:"group_id,omitempty"`
	SubtaskIDs  []primitive.ObjectID `bson:"subtask_ids,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newTaskDoc(tsk task.Task) taskDoc {
	doc := taskDoc{
		Title:       tsk.Title,
		Description: tsk.Description,
		DueDate:     tsk.DueDate,
		DueTime:     tsk.DueTime,
		Status:      tsk.Status,
		GroupStatus: tsk.GroupStatus,
		SharedWith:  objectIDs(tsk.SharedWith),
		SubtaskIDs:  objectIDs(tsk.SubtaskIDs),
		CreatedAt:   tsk.CreatedAt,
		UpdatedAt:   tsk.UpdatedAt,
	}
	if tsk.ID != "" {
		doc.ID, _ = primitive.ObjectIDFromHex(tsk.ID)
	}
	if tsk.CourseID != "" {
		doc.CourseID, _ = primitive.ObjectIDFromHex(tsk.CourseID)
	}
	if tsk.UserID != "" {
		doc.UserID, _ = primitive.ObjectIDFromHex(tsk.UserID)
	}
	if tsk.GroupID != "" {
		doc.GroupID, _ = primitive.ObjectIDFromHex(tsk.GroupID)
	}
	return doc
}

func (doc taskDoc) toTask() task.Task {
	tsk := task.Task{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		DueDate:     doc.DueDate,
		DueTime:     doc.DueTime,
		Status:      doc.Status,
		GroupStatus: doc.GroupStatus,
		UserID:      doc.UserID.Hex(),
		SharedWith:  hexIDs(doc.SharedWith),
		SubtaskIDs:  hexIDs(doc.SubtaskIDs),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if !doc.CourseID.IsZero() {
		tsk.CourseID = doc.CourseID.Hex()
	}
	if !doc.GroupID.IsZero() {
		tsk.GroupID = doc.GroupID.Hex()
	}
	return tsk
}

type subtaskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	DueDate     time.Time          `bson:"due_date"`
	DueTime     string             `bson:"due_time"`
	Status      string             `bson:"status"`
	GroupStatus string             `bson:"group_status"`
	CourseID    primitive.ObjectID `bson:"course_id,omitempty"`
	ParentTask  primitive.ObjectID `bson:"parent_task"`
	Assignee    primitive.ObjectID `bson:"assignee"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func newSubtaskDoc(st task.Subtask) subtaskDoc {
	doc := subtaskDoc{
		Title:       st.Title,
		Description: st.Description,
		DueDate:     st.DueDate,
		DueTime:     st.DueTime,
		Status:      st.Status,
		GroupStatus: st.GroupStatus,
		CreatedAt:   st.CreatedAt,
		UpdatedAt:   st.UpdatedAt,
	}
	if st.ID != "" {
		doc.ID, _ = primitive.ObjectIDFromHex(st.ID)
	}
	if st.CourseID != "" {
		doc.CourseID, _ = primitive.ObjectIDFromHex(st.CourseID)
	}
	if st.ParentTask != "" {
		doc.ParentTask, _ = primitive.ObjectIDFromHex(st.ParentTask)
	}
	if st.Assignee != "" {
		doc.Assignee, _ = primitive.ObjectIDFromHex(st.Assignee)
	}
	return doc
}

func (doc subtaskDoc) toSubtask() task.Subtask {
	st := task.Subtask{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		DueDate:     doc.DueDate,
		DueTime:     doc.DueTime,
		Status:      doc.Status,
		GroupStatus: doc.GroupStatus,
		ParentTask:  doc.ParentTask.Hex(),
		Assignee:    doc.Assignee.Hex(),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if !doc.CourseID.IsZero() {
		st.CourseID = doc.CourseID.Hex()
	}
	return st
}

type taskRepository struct {
	db *mongo.Database
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *mongo.Database) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) coll() *mongo.Collection { return repo.db.Collection(tasksCollection) }

func (repo *taskRepository) subColl() *mongo.Collection {
	return repo.db.Collection(subtasksCollection)
}

func (repo *taskRepository) CreateTask(tsk task.Task) (task.Task, error) {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.coll().InsertOne(ctx, newTaskDoc(tsk))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	tsk.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return tsk, nil
}

func (repo *taskRepository) TaskExists(userID, title string, dueDate time.Time, dueTime string) (bool, error) {
	oid, err := objectID(userID, task.ErrNotFound)
	if err != nil {
		return false, nil
	}

	ctx, cancel := opCtx()
	defer cancel()

	dayStart := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, dueDate.Location())
	n, err := repo.coll().CountDocuments(ctx, bson.M{
		"user_id":  oid,
		"title":    title,
		"due_time": dueTime,
		"due_date": bson.M{"$gte": dayStart, "$lt": dayStart.AddDate(0, 0, 1)},
	})
	if err != nil {
		return false, errors.Wrap(err, "counting matching tasks")
	}
	return n > 0, nil
}

func (repo *taskRepository) GetTaskByID(id string) (task.Task, error) {
	oid, err := objectID(id, task.ErrNotFound)
	if err != nil {
		return task.Task{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	var doc taskDoc
	if err := repo.coll().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return doc.toTask(), nil
}

// QueryTasksByUser returns tasks the user owns, is shared on, or can see
// through group membership.
func (repo *taskRepository) QueryTasksByUser(userID string) ([]task.Task, error) {
	visibility, err := repo.visibilityFilter(userID)
	if err != nil {
		return nil, err
	}
	if visibility == nil {
		return []task.Task{}, nil
	}
	return repo.findTasks(visibility)
}

func (repo *taskRepository) QueryTasksByCourse(courseID string) ([]task.Task, error) {
	oid, err := objectID(courseID, task.ErrNotFound)
	if err != nil {
		return []task.Task{}, nil
	}
	return repo.findTasks(bson.M{"course_id": oid})
}

func (repo *taskRepository) FilterTasks(filter task.QueryFilter) ([]task.Task, error) {
	query := bson.M{}
	if filter.UserID != "" {
		visibility, err := repo.visibilityFilter(filter.UserID)
		if err != nil {
			return nil, err
		}
		if visibility == nil {
			return []task.Task{}, nil
		}
		for key, val := range visibility {
			query[key] = val
		}
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.CourseID != "" {
		oid, err := objectID(filter.CourseID, task.ErrNotFound)
		if err != nil {
			return []task.Task{}, nil
		}
		query["course_id"] = oid
	}
	dueRange := bson.M{}
	if !filter.DueFrom.IsZero() {
		dueRange["$gte"] = filter.DueFrom
	}
	if !filter.DueTo.IsZero() {
		dueRange["$lte"] = filter.DueTo
	}
	if len(dueRange) > 0 {
		query["due_date"] = dueRange
	}
	return repo.findTasks(query)
}

func (repo *taskRepository) UpdateTask(tsk task.Task) (task.Task, error) {
	oid, err := objectID(tsk.ID, task.ErrNotFound)
	if err != nil {
		return task.Task{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.coll().ReplaceOne(ctx, bson.M{"_id": oid}, newTaskDoc(tsk))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if res.MatchedCount == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return tsk, nil
}

// DeleteTaskByID removes the task and cascades to its subtasks.
func (repo *taskRepository) DeleteTaskByID(id string) error {
	oid, err := objectID(id, task.ErrNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	if _, err = repo.subColl().DeleteMany(ctx, bson.M{"parent_task": oid}); err != nil {
		return errors.Wrap(err, "deleting subtasks")
	}
	if _, err = repo.coll().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return nil
}

func (repo *taskRepository) CreateSubtask(st task.Subtask) (task.Subtask, error) {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.subColl().InsertOne(ctx, newSubtaskDoc(st))
	if err != nil {
		return task.Subtask{}, errors.Wrap(err, "inserting subtask")
	}
	st.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return st, nil
}

func (repo *taskRepository) GetSubtaskByID(id string) (task.Subtask, error) {
	oid, err := objectID(id, task.ErrSubtaskNotFound)
	if err != nil {
		return task.Subtask{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	var doc subtaskDoc
	if err := repo.subColl().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return task.Subtask{}, task.ErrSubtaskNotFound
		}
		return task.Subtask{}, errors.Wrap(err, "getting subtask")
	}
	return doc.toSubtask(), nil
}

func (repo *taskRepository) QuerySubtasksByTask(taskID string) ([]task.Subtask, error) {
	oid, err := objectID(taskID, task.ErrNotFound)
	if err != nil {
		return []task.Subtask{}, nil
	}

	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.subColl().Find(ctx, bson.M{"parent_task": oid})
	if err != nil {
		return nil, errors.Wrap(err, "querying subtasks")
	}
	var docs []subtaskDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding subtasks")
	}

	subtasks := make([]task.Subtask, 0, len(docs))
	for _, doc := range docs {
		subtasks = append(subtasks, doc.toSubtask())
	}
	return subtasks, nil
}

func (repo *taskRepository) UpdateSubtask(st task.Subtask) (task.Subtask, error) {
	oid, err := objectID(st.ID, task.ErrSubtaskNotFound)
	if err != nil {
		return task.Subtask{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.subColl().ReplaceOne(ctx, bson.M{"_id": oid}, newSubtaskDoc(st))
	if err != nil {
		return task.Subtask{}, errors.Wrap(err, "updating subtask")
	}
	if res.MatchedCount == 0 {
		return task.Subtask{}, task.ErrSubtaskNotFound
	}
	return st, nil
}

func (repo *taskRepository) DeleteSubtaskByID(id string) error {
	oid, err := objectID(id, task.ErrSubtaskNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := opCtx()
	defer cancel()

	if _, err = repo.subColl().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return errors.Wrap(err, "deleting subtask")
	}
	return nil
}

// visibilityFilter builds the $or filter matching tasks the user may see.
// A nil filter means the user ID is malformed and nothing matches.
func (repo *taskRepository) visibilityFilter(userID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.db.Collection(groupsCollection).Find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"member_ids": oid},
			bson.M{"created_by": oid},
		},
	}, findProjection("_id"))
	if err != nil {
		return nil, errors.Wrap(err, "querying user groups")
	}
	var groupRefs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cur.All(ctx, &groupRefs); err != nil {
		return nil, errors.Wrap(err, "decoding user groups")
	}

	or := bson.A{
		bson.M{"user_id": oid},
		bson.M{"shared_with": oid},
	}
	if len(groupRefs) > 0 {
		groupIDs := make([]primitive.ObjectID, 0, len(groupRefs))
		for _, ref := range groupRefs {
			groupIDs = append(groupIDs, ref.ID)
		}
		or = append(or, bson.M{"group_id": bson.M{"$in": groupIDs}})
	}
	return bson.M{"$or": or}, nil
}

func (repo *taskRepository) findTasks(filter bson.M) ([]task.Task, error) {
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.coll().Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	var docs []taskDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding tasks")
	}

	tasks := make([]task.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, doc.toTask())
	}
	return tasks, nil
}
