package dto

import "encoding/json"

// TaskRequest is the body of POST /tasks and PUT /tasks/:id.
type TaskRequest struct {
	Name             *string         `json:"name"`
	Description      *string         `json:"description"`
	Deadline         json.RawMessage `json:"deadline"`
	Completed        *bool           `json:"completed"`
	AssignedUser     *string         `json:"assignedUser"`
	AssignedUserName *string         `json:"assignedUserName"` // ignored, derived from the user
}
