package model

import (
	"time"
)

// UnassignedName is stored in Task.AssignedUserName whenever AssignedUser is empty.
const UnassignedName = "unassigned"

type Task struct {
	TaskID           string    `firestore:"-" json:"_id"`
	Name             string    `firestore:"name" json:"name"`
	Description      string    `firestore:"description" json:"description"`
	Deadline         time.Time `firestore:"deadline" json:"deadline"`
	Completed        bool      `firestore:"completed" json:"completed"`
	AssignedUser     string    `firestore:"assignedUser" json:"assignedUser"`         // "" = unassigned
	AssignedUserName string    `firestore:"assignedUserName" json:"assignedUserName"` // "unassigned" when AssignedUser is ""
	DateCreated      time.Time `firestore:"dateCreated" json:"dateCreated"`
}

// Unassign resets the assignment pair to its unassigned form.
func (t *Task) Unassign() {
	t.AssignedUser = ""
	t.AssignedUserName = UnassignedName
}

// IsPending reports whether the task belongs in its assignee's pendingTasks.
func (t *Task) IsPending() bool {
	return t.AssignedUser != "" && !t.Completed
}
