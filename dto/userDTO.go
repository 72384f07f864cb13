package dto

type CreateUserRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PendingTasks []string `json:"pendingTasks"`
}

type UpdateUserRequest struct {
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	PendingTasks *[]string `json:"pendingTasks"`
}
