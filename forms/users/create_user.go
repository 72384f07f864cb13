package users

import (
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/dto"
	"taskboard/forms"
	"taskboard/response"
)

type CreateUserForm struct {
	Name         string
	Email        string
	PendingTasks []string
}

func NewCreateUserForm() *CreateUserForm {
	return &CreateUserForm{}
}

func (f *CreateUserForm) ParseAndValidate(c *gin.Context) (forms.Former, response.Error) {
	var request dto.CreateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, forms.InvalidStructure()
	}

	errors := make(map[string]response.ErrorMessage)
	f.validateAndSetName(&request, errors)
	f.validateAndSetEmail(&request, errors)

	if len(errors) > 0 {
		return nil, response.NewValidationError(errors)
	}

	f.PendingTasks = request.PendingTasks
	return f, nil
}

func (f *CreateUserForm) validateAndSetName(request *dto.CreateUserRequest, errors map[string]response.ErrorMessage) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		errors["name"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "name is required",
		}
		return
	}

	f.Name = name
}

func (f *CreateUserForm) validateAndSetEmail(request *dto.CreateUserRequest, errors map[string]response.ErrorMessage) {
	email := strings.TrimSpace(request.Email)
	if email == "" {
		errors["email"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "email is required",
		}
		return
	}

	f.Email = email
}
