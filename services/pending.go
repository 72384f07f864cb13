package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"taskboard/model"
)

const pendingTasksField = "pendingTasks"

// SyncPendingTasks brings users' pendingTasks in line with a task that was
// just written. The task id is pulled from every user in removeFrom, then
// added to addFor unless the task is completed. Users that no longer exist
// are skipped.
func SyncPendingTasks(ctx context.Context, fb *firestore.Client, task *model.Task, addFor string, removeFrom ...string) error {
	remove := compactIDs(removeFrom)
	if len(remove) > 0 {
		if err := pullTasksFromUsers(ctx, fb, []string{task.TaskID}, remove); err != nil {
			return err
		}
	}

	if addFor == "" || task.Completed {
		return nil
	}

	_, err := fb.Collection(UsersCollection).Doc(addFor).Update(ctx, []firestore.Update{
		{Path: pendingTasksField, Value: firestore.ArrayUnion(task.TaskID)},
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("add task %s to user %s: %w", task.TaskID, addFor, err)
	}
	return nil
}

// createPlan returns the synchronizer arguments after creating task.
func createPlan(task *model.Task) (addFor string) {
	if task.IsPending() {
		return task.AssignedUser
	}
	return ""
}

// replacePlan returns the synchronizer arguments after prev was replaced by
// next. The previous assignee always loses the id; the new assignee gains it
// only while the task is open, and is explicitly cleared otherwise.
func replacePlan(prev, next *model.Task) (addFor string, removeFrom []string) {
	if prev.AssignedUser != "" {
		removeFrom = append(removeFrom, prev.AssignedUser)
	}
	if next.AssignedUser != "" {
		if next.Completed {
			removeFrom = append(removeFrom, next.AssignedUser)
		} else {
			addFor = next.AssignedUser
		}
	}
	return addFor, removeFrom
}

// pullTasksFromUsers removes taskIDs from the pendingTasks of every user in
// userIDs. Each user document is updated atomically; the set as a whole is not.
func pullTasksFromUsers(ctx context.Context, fb *firestore.Client, taskIDs []string, userIDs []string) error {
	if len(taskIDs) == 0 || len(userIDs) == 0 {
		return nil
	}

	users := fb.Collection(UsersCollection)
	updates := []firestore.Update{
		{Path: pendingTasksField, Value: firestore.ArrayRemove(toInterfaces(taskIDs)...)},
	}

	bw := fb.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(userIDs))
	for _, id := range userIDs {
		job, err := bw.Update(users.Doc(id), updates)
		if err != nil {
			bw.End()
			return fmt.Errorf("queue pull from user %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := waitJobs(jobs); err != nil {
		return fmt.Errorf("pull tasks from users: %w", err)
	}
	return nil
}

// waitJobs returns the first failure among jobs, ignoring writes that hit a
// document which no longer exists.
func waitJobs(jobs []*firestore.BulkWriterJob) error {
	for _, job := range jobs {
		if _, err := job.Results(); err != nil && !isNotFound(err) {
			return err
		}
	}
	return nil
}
