package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"taskboard/model"
)

// assignBatch creates user and, in the same transaction, makes it the owner
// of every task listed in user.PendingTasks. Each task must exist and be
// open. Prior owners lose the moved ids. On any error nothing is written.
//
// Firestore wants every read before the first write, so the transaction
// reads the email index, the tasks and the prior owners up front.
func assignBatch(ctx context.Context, fb *firestore.Client, user *model.User) error {
	users := fb.Collection(UsersCollection)
	tasks := fb.Collection(TasksCollection)
	userRef := users.Doc(user.UserID)
	taskIDs := user.PendingTasks

	err := fb.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		dup, err := tx.Documents(users.Where("email", "==", user.Email).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if len(dup) > 0 {
			return duplicateEmail(user.Email)
		}

		taskRefs := make([]*firestore.DocumentRef, len(taskIDs))
		for i, id := range taskIDs {
			taskRefs[i] = tasks.Doc(id)
		}

		var ownerRefs []*firestore.DocumentRef
		if len(taskRefs) > 0 {
			snaps, err := tx.GetAll(taskRefs)
			if err != nil {
				return fmt.Errorf("load tasks: %w", err)
			}

			found := 0
			seen := make(map[string]struct{})
			for _, snap := range snaps {
				if !snap.Exists() {
					continue
				}
				found++
				task, err := taskFromSnapshot(snap)
				if err != nil {
					return err
				}
				if task.Completed {
					return invalidf("task %s is already completed", task.TaskID)
				}
				owner := task.AssignedUser
				if owner == "" || owner == user.UserID {
					continue
				}
				if _, ok := seen[owner]; ok {
					continue
				}
				seen[owner] = struct{}{}
				ownerRefs = append(ownerRefs, users.Doc(owner))
			}
			if found != len(taskIDs) {
				return invalidf("pendingTasks references %d task(s) that do not exist", len(taskIDs)-found)
			}
		}

		var owners []*firestore.DocumentSnapshot
		if len(ownerRefs) > 0 {
			owners, err = tx.GetAll(ownerRefs)
			if err != nil {
				return fmt.Errorf("load prior owners: %w", err)
			}
		}

		if err := tx.Create(userRef, user); err != nil {
			return err
		}

		for _, ref := range taskRefs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "assignedUser", Value: user.UserID},
				{Path: "assignedUserName", Value: user.Name},
				{Path: "completed", Value: false},
			}); err != nil {
				return err
			}
		}

		for _, owner := range owners {
			if !owner.Exists() {
				continue
			}
			if err := tx.Update(owner.Ref, []firestore.Update{
				{Path: pendingTasksField, Value: firestore.ArrayRemove(toInterfaces(taskIDs)...)},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create user with pending tasks: %w", err)
	}
	return nil
}
