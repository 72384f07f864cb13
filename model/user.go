package model

import "time"

type User struct {
	UserID       string    `firestore:"-" json:"_id"`
	Name         string    `firestore:"name" json:"name"`
	Email        string    `firestore:"email" json:"email"`
	PendingTasks []string  `firestore:"pendingTasks" json:"pendingTasks"` // task ids, set semantics
	DateCreated  time.Time `firestore:"dateCreated" json:"dateCreated"`
}
