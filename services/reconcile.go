package services

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

type ReconcileReport struct {
	Users   int
	Drifted int
}

// ReconcilePendingTasks recomputes every user's pendingTasks from the Tasks
// collection and rewrites the users whose stored set differs. With dryRun
// nothing is written.
func ReconcilePendingTasks(ctx context.Context, fb *firestore.Client, log *logrus.Entry, dryRun bool) (*ReconcileReport, error) {
	expected, err := openTasksByOwner(ctx, fb)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	bw := fb.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	iter := fb.Collection(UsersCollection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return nil, fmt.Errorf("list users: %w", err)
		}
		report.Users++

		user, err := userFromSnapshot(snap)
		if err != nil {
			bw.End()
			return nil, err
		}

		want := expected[user.UserID]
		if want == nil {
			want = []string{}
		}
		if sameIDSet(user.PendingTasks, want) {
			continue
		}
		report.Drifted++
		log.WithFields(logrus.Fields{
			"user":   user.UserID,
			"stored": len(user.PendingTasks),
			"want":   len(want),
		}).Info("pendingTasks drifted")

		if dryRun {
			continue
		}
		job, err := bw.Update(snap.Ref, []firestore.Update{{Path: pendingTasksField, Value: want}})
		if err != nil {
			bw.End()
			return nil, fmt.Errorf("queue reconcile of user %s: %w", user.UserID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := waitJobs(jobs); err != nil {
		return nil, fmt.Errorf("reconcile users: %w", err)
	}
	return report, nil
}

// openTasksByOwner maps user id to the sorted ids of its open tasks.
func openTasksByOwner(ctx context.Context, fb *firestore.Client) (map[string][]string, error) {
	iter := fb.Collection(TasksCollection).Where("completed", "==", false).Documents(ctx)
	defer iter.Stop()

	owners := make(map[string][]string)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list open tasks: %w", err)
		}
		task, err := taskFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		if !task.IsPending() {
			continue
		}
		owners[task.AssignedUser] = append(owners[task.AssignedUser], task.TaskID)
	}
	for _, ids := range owners {
		sort.Strings(ids)
	}
	return owners, nil
}

// sameIDSet compares a and b as sets. A stored list a holding duplicates
// never matches.
func sameIDSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, id := range a {
		as[id] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, id := range b {
		bs[id] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if _, ok := bs[id]; !ok {
			return false
		}
	}
	return len(a) == len(as)
}
