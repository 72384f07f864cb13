package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"taskboard/model"
)

func userFromSnapshot(snap *firestore.DocumentSnapshot) (*model.User, error) {
	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	user.UserID = snap.Ref.ID
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
	return &user, nil
}

func UserExist(ctx context.Context, fb *firestore.Client, email string) (bool, error) {
	id, err := userIDByEmail(ctx, fb, email)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// userIDByEmail returns the id of the user owning email, or "".
func userIDByEmail(ctx context.Context, fb *firestore.Client, email string) (string, error) {
	docs, err := fb.Collection(UsersCollection).Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("look up email: %w", err)
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].Ref.ID, nil
}

func GetUser(ctx context.Context, fb *firestore.Client, id string) (*model.User, error) {
	snap, err := getSnapshot(ctx, fb, UsersCollection, "user", id)
	if err != nil {
		return nil, err
	}
	return userFromSnapshot(snap)
}

// GetUserDocument returns a user, or a field map when opts carries a projection.
func GetUserDocument(ctx context.Context, fb *firestore.Client, id string, opts *ListOptions) (interface{}, error) {
	if !opts.Projected() {
		return GetUser(ctx, fb, id)
	}
	snap, err := getSnapshot(ctx, fb, UsersCollection, "user", id)
	if err != nil {
		return nil, err
	}
	return opts.project(snap), nil
}

// ListUsers returns an int64 when opts.Count is set, otherwise []interface{}.
func ListUsers(ctx context.Context, fb *firestore.Client, opts *ListOptions) (interface{}, error) {
	return list(ctx, fb, UsersCollection, opts, func(snap *firestore.DocumentSnapshot) (interface{}, error) {
		return userFromSnapshot(snap)
	})
}

func duplicateEmail(email string) error {
	return invalidf("a user with email %s already exists", email)
}

// CreateUser stores a new user and atomically hands it the tasks listed in
// pendingTasks. It returns the user as read back after commit.
func CreateUser(ctx context.Context, fb *firestore.Client, name, email string, pendingTasks []string) (*model.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, invalidf("name and email are required")
	}

	exists, err := UserExist(ctx, fb, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateEmail(email)
	}

	taskIDs, invalid := NormalizeIDs(pendingTasks)
	if len(invalid) > 0 {
		return nil, invalidf("pendingTasks contains invalid task ids: %s", strings.Join(invalid, ", "))
	}

	user := &model.User{
		UserID:       NewID(),
		Name:         name,
		Email:        email,
		PendingTasks: taskIDs,
		DateCreated:  time.Now().UTC(),
	}
	if err := assignBatch(ctx, fb, user); err != nil {
		return nil, err
	}

	return GetUser(ctx, fb, user.UserID)
}

// UserPatch carries the fields of a user update. Nil fields are left alone.
type UserPatch struct {
	Name         *string
	Email        *string
	PendingTasks *[]string
}

// UpdateUser applies patch to the user stored under id. A pendingTasks list
// is stored as given and forwarded onto those tasks; tasks dropped from the
// list keep their assignment.
func UpdateUser(ctx context.Context, fb *firestore.Client, id string, patch UserPatch) (*model.User, error) {
	user, err := GetUser(ctx, fb, id)
	if err != nil {
		return nil, err
	}

	var updates []firestore.Update
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalidf("name cannot be empty")
		}
		user.Name = name
		updates = append(updates, firestore.Update{Path: "name", Value: name})
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			return nil, invalidf("email cannot be empty")
		}
		if email != user.Email {
			owner, err := userIDByEmail(ctx, fb, email)
			if err != nil {
				return nil, err
			}
			if owner != "" && owner != user.UserID {
				return nil, duplicateEmail(email)
			}
		}
		user.Email = email
		updates = append(updates, firestore.Update{Path: "email", Value: email})
	}

	var forward []string
	if patch.PendingTasks != nil {
		ids, invalid := NormalizeIDs(*patch.PendingTasks)
		if len(invalid) > 0 {
			return nil, invalidf("pendingTasks contains invalid task ids: %s", strings.Join(invalid, ", "))
		}
		forward = ids
		updates = append(updates, firestore.Update{Path: pendingTasksField, Value: ids})
	}

	if len(updates) > 0 {
		if _, err := fb.Collection(UsersCollection).Doc(user.UserID).Update(ctx, updates); err != nil {
			if isNotFound(err) {
				return nil, &NotFoundError{Resource: "user", ID: id}
			}
			return nil, fmt.Errorf("update user %s: %w", user.UserID, err)
		}
	}

	if err := assignTasksTo(ctx, fb, user, forward); err != nil {
		return nil, err
	}

	return GetUser(ctx, fb, user.UserID)
}

// DeleteUser removes the user and leaves every task it owned unassigned.
func DeleteUser(ctx context.Context, fb *firestore.Client, id string) (*model.User, error) {
	user, err := GetUser(ctx, fb, id)
	if err != nil {
		return nil, err
	}

	if _, err := fb.Collection(UsersCollection).Doc(user.UserID).Delete(ctx); err != nil {
		return nil, fmt.Errorf("delete user %s: %w", user.UserID, err)
	}

	if _, err := unassignTasksOf(ctx, fb, user.UserID); err != nil {
		return nil, err
	}
	return user, nil
}
