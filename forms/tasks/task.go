package tasks

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/dto"
	"taskboard/forms"
	"taskboard/model"
	"taskboard/response"
)

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TaskForm validates the body shared by task create and full replace.
type TaskForm struct {
	Name         string
	Description  string
	Deadline     time.Time
	Completed    bool
	AssignedUser string
}

func NewTaskForm() *TaskForm {
	return &TaskForm{}
}

func (f *TaskForm) ParseAndValidate(c *gin.Context) (forms.Former, response.Error) {
	var request dto.TaskRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, forms.InvalidStructure()
	}

	errors := make(map[string]response.ErrorMessage)
	f.validateAndSetName(&request, errors)
	f.validateAndSetDeadline(&request, errors)

	if len(errors) > 0 {
		return nil, response.NewValidationError(errors)
	}

	if request.Description != nil {
		f.Description = *request.Description
	}
	if request.Completed != nil {
		f.Completed = *request.Completed
	}
	if request.AssignedUser != nil {
		f.AssignedUser = strings.TrimSpace(*request.AssignedUser)
	}

	return f, nil
}

// Task builds the document to store. Assignment is resolved by the service.
func (f *TaskForm) Task() *model.Task {
	return &model.Task{
		Name:             f.Name,
		Description:      f.Description,
		Deadline:         f.Deadline,
		Completed:        f.Completed,
		AssignedUser:     f.AssignedUser,
		AssignedUserName: model.UnassignedName,
	}
}

func (f *TaskForm) validateAndSetName(request *dto.TaskRequest, errors map[string]response.ErrorMessage) {
	if request.Name == nil || strings.TrimSpace(*request.Name) == "" {
		errors["name"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "name is required",
		}
		return
	}

	f.Name = strings.TrimSpace(*request.Name)
}

func (f *TaskForm) validateAndSetDeadline(request *dto.TaskRequest, errors map[string]response.ErrorMessage) {
	raw := bytes.TrimSpace(request.Deadline)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		errors["deadline"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "deadline is required",
		}
		return
	}

	deadline, ok := parseDeadline(raw)
	if !ok {
		errors["deadline"] = response.ErrorMessage{
			Code:    response.InvalidValue,
			Message: "deadline must be a date string or milliseconds since epoch",
		}
		return
	}

	f.Deadline = deadline
}

// parseDeadline accepts a date/time string or Unix milliseconds.
func parseDeadline(raw []byte) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range deadlineLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}
