package services

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"taskboard/model"
)

// newTestClient connects to the Firestore emulator. Tests that need a store
// are skipped when FIRESTORE_EMULATOR_HOST is unset.
func newTestClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "taskboard-test")
	if err != nil {
		t.Fatalf("firestore.NewClient() failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func mustCreateUser(t *testing.T, fb *firestore.Client, name string, pending ...string) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), fb, name, NewID()+"@example.com", pending)
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func mustCreateTask(t *testing.T, fb *firestore.Client, name, assignee string, completed bool) *model.Task {
	t.Helper()
	task := &model.Task{
		Name:         name,
		Deadline:     time.Now().Add(24 * time.Hour).UTC(),
		Completed:    completed,
		AssignedUser: assignee,
	}
	if err := CreateTask(context.Background(), fb, task); err != nil {
		t.Fatalf("CreateTask(%s) failed: %v", name, err)
	}
	return task
}

func mustGetUser(t *testing.T, fb *firestore.Client, id string) *model.User {
	t.Helper()
	user, err := GetUser(context.Background(), fb, id)
	if err != nil {
		t.Fatalf("GetUser(%s) failed: %v", id, err)
	}
	return user
}

func mustGetTask(t *testing.T, fb *firestore.Client, id string) *model.Task {
	t.Helper()
	task, err := GetTask(context.Background(), fb, id)
	if err != nil {
		t.Fatalf("GetTask(%s) failed: %v", id, err)
	}
	return task
}

func assertPending(t *testing.T, fb *firestore.Client, userID string, want ...string) {
	t.Helper()
	got := append([]string(nil), mustGetUser(t, fb, userID).PendingTasks...)
	sort.Strings(got)
	want = append([]string(nil), want...)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("pendingTasks of %s = %v, want %v", userID, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("pendingTasks of %s = %v, want %v", userID, got, want)
		}
	}
}

func TestCreateTask_AssignedOpen(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")

	task := mustCreateTask(t, fb, "write report", a.UserID, false)

	if task.AssignedUserName != "Alice" {
		t.Errorf("AssignedUserName = %q, want Alice", task.AssignedUserName)
	}
	assertPending(t, fb, a.UserID, task.TaskID)
}

func TestCreateTask_AssignedCompleted(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")

	mustCreateTask(t, fb, "done already", a.UserID, true)

	assertPending(t, fb, a.UserID)
}

func TestCreateTask_InvalidReferenceIsUnassigned(t *testing.T) {
	fb := newTestClient(t)
	task := &model.Task{
		Name:             "loose",
		Deadline:         time.Now().UTC(),
		AssignedUser:     "not-a-reference",
		AssignedUserName: "Somebody",
	}
	if err := CreateTask(context.Background(), fb, task); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}

	stored := mustGetTask(t, fb, task.TaskID)
	if stored.AssignedUser != "" || stored.AssignedUserName != model.UnassignedName {
		t.Errorf("assignment = (%q, %q), want unassigned", stored.AssignedUser, stored.AssignedUserName)
	}
}

func TestCreateTask_UnknownUser(t *testing.T) {
	fb := newTestClient(t)
	task := &model.Task{Name: "orphan", Deadline: time.Now().UTC(), AssignedUser: NewID()}

	err := CreateTask(context.Background(), fb, task)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateTask() error = %v, want *ValidationError", err)
	}
}

func TestSyncPendingTasks_Idempotent(t *testing.T) {
	fb := newTestClient(t)
	ctx := context.Background()
	a := mustCreateUser(t, fb, "Alice")
	task := mustCreateTask(t, fb, "twice", a.UserID, false)

	for i := 0; i < 2; i++ {
		if err := SyncPendingTasks(ctx, fb, task, a.UserID); err != nil {
			t.Fatalf("SyncPendingTasks() failed: %v", err)
		}
	}

	assertPending(t, fb, a.UserID, task.TaskID)
}

func TestSyncPendingTasks_MissingUserIgnored(t *testing.T) {
	fb := newTestClient(t)
	task := &model.Task{TaskID: NewID()}

	if err := SyncPendingTasks(context.Background(), fb, task, NewID(), NewID(), ""); err != nil {
		t.Fatalf("SyncPendingTasks() failed: %v", err)
	}
}

func TestReplaceTask_CompleteAndReassign(t *testing.T) {
	fb := newTestClient(t)
	ctx := context.Background()
	a := mustCreateUser(t, fb, "Alice")
	b := mustCreateUser(t, fb, "Bob")
	task := mustCreateTask(t, fb, "move me", a.UserID, false)
	created := mustGetTask(t, fb, task.TaskID)

	next := &model.Task{Name: "move me", Deadline: task.Deadline, AssignedUser: b.UserID, AssignedUserName: "ignored"}
	if err := ReplaceTask(ctx, fb, task.TaskID, next); err != nil {
		t.Fatalf("ReplaceTask() failed: %v", err)
	}
	assertPending(t, fb, a.UserID)
	assertPending(t, fb, b.UserID, task.TaskID)

	stored := mustGetTask(t, fb, task.TaskID)
	if stored.AssignedUserName != "Bob" {
		t.Errorf("AssignedUserName = %q, want Bob", stored.AssignedUserName)
	}
	if !stored.DateCreated.Equal(created.DateCreated) {
		t.Errorf("DateCreated changed from %v to %v", created.DateCreated, stored.DateCreated)
	}

	done := &model.Task{Name: "move me", Deadline: task.Deadline, AssignedUser: b.UserID, Completed: true}
	if err := ReplaceTask(ctx, fb, task.TaskID, done); err != nil {
		t.Fatalf("ReplaceTask() failed: %v", err)
	}
	assertPending(t, fb, b.UserID)
}

func TestReplaceTask_NotFound(t *testing.T) {
	fb := newTestClient(t)
	err := ReplaceTask(context.Background(), fb, NewID(), &model.Task{Name: "x", Deadline: time.Now()})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("ReplaceTask() error = %v, want *NotFoundError", err)
	}
}

func TestDeleteTask_PullsFromOwner(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")
	keep := mustCreateTask(t, fb, "keep", a.UserID, false)
	drop := mustCreateTask(t, fb, "drop", a.UserID, false)

	if _, err := DeleteTask(context.Background(), fb, drop.TaskID); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}

	assertPending(t, fb, a.UserID, keep.TaskID)
}

func TestCreateUser_BatchReassigns(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")
	x := mustCreateTask(t, fb, "x", a.UserID, false)
	y := mustCreateTask(t, fb, "y", "", false)

	b := mustCreateUser(t, fb, "Bob", x.TaskID, y.TaskID, x.TaskID)

	assertPending(t, fb, a.UserID)
	assertPending(t, fb, b.UserID, x.TaskID, y.TaskID)
	for _, id := range []string{x.TaskID, y.TaskID} {
		task := mustGetTask(t, fb, id)
		if task.AssignedUser != b.UserID || task.AssignedUserName != "Bob" || task.Completed {
			t.Errorf("task %s = %+v, want assigned to Bob and open", id, task)
		}
	}
}

func TestCreateUser_BatchRejectsCompleted(t *testing.T) {
	fb := newTestClient(t)
	ctx := context.Background()
	a := mustCreateUser(t, fb, "Alice")
	open := mustCreateTask(t, fb, "open", a.UserID, false)
	done := mustCreateTask(t, fb, "done", a.UserID, true)
	email := NewID() + "@example.com"

	_, err := CreateUser(ctx, fb, "Bob", email, []string{open.TaskID, done.TaskID})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateUser() error = %v, want *ValidationError", err)
	}

	exists, err := UserExist(ctx, fb, email)
	if err != nil {
		t.Fatalf("UserExist() failed: %v", err)
	}
	if exists {
		t.Error("user was created despite the failed batch")
	}
	if got := mustGetTask(t, fb, open.TaskID); got.AssignedUser != a.UserID {
		t.Errorf("open task reassigned to %q", got.AssignedUser)
	}
	assertPending(t, fb, a.UserID, open.TaskID)
}

func TestCreateUser_BatchRejectsMissing(t *testing.T) {
	fb := newTestClient(t)
	x := mustCreateTask(t, fb, "x", "", false)

	_, err := CreateUser(context.Background(), fb, "Bob", NewID()+"@example.com", []string{x.TaskID, NewID()})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateUser() error = %v, want *ValidationError", err)
	}
	if got := mustGetTask(t, fb, x.TaskID); got.AssignedUser != "" {
		t.Errorf("task reassigned to %q", got.AssignedUser)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	fb := newTestClient(t)
	ctx := context.Background()
	email := NewID() + "@example.com"
	if _, err := CreateUser(ctx, fb, "Alice", email, nil); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	_, err := CreateUser(ctx, fb, "Alice again", email, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("CreateUser() error = %v, want *ValidationError", err)
	}
}

func TestUpdateUser_ForwardsPendingTasks(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")
	b := mustCreateUser(t, fb, "Bob")
	x := mustCreateTask(t, fb, "x", a.UserID, false)

	ids := []string{x.TaskID}
	user, err := UpdateUser(context.Background(), fb, b.UserID, UserPatch{PendingTasks: &ids})
	if err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	if len(user.PendingTasks) != 1 || user.PendingTasks[0] != x.TaskID {
		t.Errorf("PendingTasks = %v, want [%s]", user.PendingTasks, x.TaskID)
	}

	task := mustGetTask(t, fb, x.TaskID)
	if task.AssignedUser != b.UserID || task.AssignedUserName != "Bob" {
		t.Errorf("task assignment = (%q, %q), want Bob", task.AssignedUser, task.AssignedUserName)
	}
	// forward propagation leaves the previous owner's list alone
	assertPending(t, fb, a.UserID, x.TaskID)
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")
	b := mustCreateUser(t, fb, "Bob")

	_, err := UpdateUser(context.Background(), fb, b.UserID, UserPatch{Email: &a.Email})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("UpdateUser() error = %v, want *ValidationError", err)
	}
}

func TestDeleteUser_UnassignsTasks(t *testing.T) {
	fb := newTestClient(t)
	a := mustCreateUser(t, fb, "Alice")
	open := mustCreateTask(t, fb, "open", a.UserID, false)
	done := mustCreateTask(t, fb, "done", a.UserID, true)

	if _, err := DeleteUser(context.Background(), fb, a.UserID); err != nil {
		t.Fatalf("DeleteUser() failed: %v", err)
	}

	for _, id := range []string{open.TaskID, done.TaskID} {
		task := mustGetTask(t, fb, id)
		if task.AssignedUser != "" || task.AssignedUserName != model.UnassignedName {
			t.Errorf("task %s assignment = (%q, %q), want unassigned", id, task.AssignedUser, task.AssignedUserName)
		}
	}
	if !mustGetTask(t, fb, done.TaskID).Completed {
		t.Error("delete cascade changed completed")
	}
}

func TestReconcilePendingTasks_RepairsDrift(t *testing.T) {
	fb := newTestClient(t)
	ctx := context.Background()
	a := mustCreateUser(t, fb, "Alice")
	x := mustCreateTask(t, fb, "x", a.UserID, false)

	if _, err := fb.Collection(UsersCollection).Doc(a.UserID).Update(ctx, []firestore.Update{
		{Path: pendingTasksField, Value: []string{NewID(), NewID()}},
	}); err != nil {
		t.Fatalf("seed drift: %v", err)
	}

	report, err := ReconcilePendingTasks(ctx, fb, testLog(), false)
	if err != nil {
		t.Fatalf("ReconcilePendingTasks() failed: %v", err)
	}
	if report.Drifted < 1 {
		t.Errorf("Drifted = %d, want at least 1", report.Drifted)
	}
	assertPending(t, fb, a.UserID, x.TaskID)
}
