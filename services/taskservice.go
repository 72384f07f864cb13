package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"taskboard/model"
)

func taskFromSnapshot(snap *firestore.DocumentSnapshot) (*model.Task, error) {
	var task model.Task
	if err := snap.DataTo(&task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", snap.Ref.ID, err)
	}
	task.TaskID = snap.Ref.ID
	return &task, nil
}

func GetTask(ctx context.Context, fb *firestore.Client, id string) (*model.Task, error) {
	snap, err := getSnapshot(ctx, fb, TasksCollection, "task", id)
	if err != nil {
		return nil, err
	}
	return taskFromSnapshot(snap)
}

// GetTaskDocument returns a task, or a field map when opts carries a projection.
func GetTaskDocument(ctx context.Context, fb *firestore.Client, id string, opts *ListOptions) (interface{}, error) {
	if !opts.Projected() {
		return GetTask(ctx, fb, id)
	}
	snap, err := getSnapshot(ctx, fb, TasksCollection, "task", id)
	if err != nil {
		return nil, err
	}
	return opts.project(snap), nil
}

// ListTasks returns an int64 when opts.Count is set, otherwise []interface{}.
func ListTasks(ctx context.Context, fb *firestore.Client, opts *ListOptions) (interface{}, error) {
	return list(ctx, fb, TasksCollection, opts, func(snap *firestore.DocumentSnapshot) (interface{}, error) {
		return taskFromSnapshot(snap)
	})
}

// resolveAssignment validates task.AssignedUser and copies the user's
// current name into AssignedUserName. Anything that is not a valid
// reference leaves the task unassigned.
func resolveAssignment(ctx context.Context, fb *firestore.Client, task *model.Task) error {
	id := CanonicalID(task.AssignedUser)
	if id == "" {
		task.Unassign()
		return nil
	}

	user, err := GetUser(ctx, fb, id)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return invalidf("assigned user %s does not exist", id)
		}
		return err
	}

	task.AssignedUser = user.UserID
	task.AssignedUserName = user.Name
	return nil
}

// CreateTask stores task under a fresh id and files it in its assignee's
// pendingTasks when it is open.
func CreateTask(ctx context.Context, fb *firestore.Client, task *model.Task) error {
	if err := resolveAssignment(ctx, fb, task); err != nil {
		return err
	}

	task.TaskID = NewID()
	task.DateCreated = time.Now().UTC()

	if _, err := fb.Collection(TasksCollection).Doc(task.TaskID).Create(ctx, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return SyncPendingTasks(ctx, fb, task, createPlan(task))
}

// ReplaceTask overwrites the task stored under id with next, keeping its id
// and creation date.
func ReplaceTask(ctx context.Context, fb *firestore.Client, id string, next *model.Task) error {
	prev, err := GetTask(ctx, fb, id)
	if err != nil {
		return err
	}

	if err := resolveAssignment(ctx, fb, next); err != nil {
		return err
	}

	next.TaskID = prev.TaskID
	next.DateCreated = prev.DateCreated

	if _, err := fb.Collection(TasksCollection).Doc(next.TaskID).Set(ctx, next); err != nil {
		return fmt.Errorf("replace task %s: %w", next.TaskID, err)
	}

	addFor, removeFrom := replacePlan(prev, next)
	return SyncPendingTasks(ctx, fb, next, addFor, removeFrom...)
}

// DeleteTask removes the task and pulls it from its assignee's pendingTasks.
func DeleteTask(ctx context.Context, fb *firestore.Client, id string) (*model.Task, error) {
	task, err := GetTask(ctx, fb, id)
	if err != nil {
		return nil, err
	}

	if _, err := fb.Collection(TasksCollection).Doc(task.TaskID).Delete(ctx); err != nil {
		return nil, fmt.Errorf("delete task %s: %w", task.TaskID, err)
	}

	if err := SyncPendingTasks(ctx, fb, task, "", task.AssignedUser); err != nil {
		return nil, err
	}
	return task, nil
}

// unassignTasksOf resets every task assigned to userID to unassigned.
func unassignTasksOf(ctx context.Context, fb *firestore.Client, userID string) (int, error) {
	snaps, err := fb.Collection(TasksCollection).Where("assignedUser", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("find tasks of user %s: %w", userID, err)
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	updates := []firestore.Update{
		{Path: "assignedUser", Value: ""},
		{Path: "assignedUserName", Value: model.UnassignedName},
	}

	bw := fb.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(snaps))
	for _, snap := range snaps {
		job, err := bw.Update(snap.Ref, updates)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("queue unassign of task %s: %w", snap.Ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := waitJobs(jobs); err != nil {
		return 0, fmt.Errorf("unassign tasks of user %s: %w", userID, err)
	}
	return len(snaps), nil
}

// assignTasksTo points each task in taskIDs at user. Missing tasks are skipped.
func assignTasksTo(ctx context.Context, fb *firestore.Client, user *model.User, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}

	tasks := fb.Collection(TasksCollection)
	updates := []firestore.Update{
		{Path: "assignedUser", Value: user.UserID},
		{Path: "assignedUserName", Value: user.Name},
	}

	bw := fb.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(taskIDs))
	for _, id := range taskIDs {
		job, err := bw.Update(tasks.Doc(id), updates)
		if err != nil {
			bw.End()
			return fmt.Errorf("queue assign of task %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := waitJobs(jobs); err != nil {
		return fmt.Errorf("assign tasks to user %s: %w", user.UserID, err)
	}
	return nil
}

func getSnapshot(ctx context.Context, fb *firestore.Client, collection, resource, id string) (*firestore.DocumentSnapshot, error) {
	canonical := CanonicalID(id)
	if canonical == "" {
		return nil, &NotFoundError{Resource: resource, ID: id}
	}
	snap, err := fb.Collection(collection).Doc(canonical).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: resource, ID: id}
		}
		return nil, fmt.Errorf("get %s %s: %w", resource, canonical, err)
	}
	return snap, nil
}
