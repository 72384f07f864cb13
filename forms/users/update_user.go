package users

import (
	"github.com/gin-gonic/gin"

	"taskboard/dto"
	"taskboard/forms"
	"taskboard/response"
	"taskboard/services"
)

type UpdateUserForm struct {
	Patch services.UserPatch
}

func NewUpdateUserForm() *UpdateUserForm {
	return &UpdateUserForm{}
}

func (f *UpdateUserForm) ParseAndValidate(c *gin.Context) (forms.Former, response.Error) {
	var request dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, forms.InvalidStructure()
	}

	f.Patch = services.UserPatch{
		Name:         request.Name,
		Email:        request.Email,
		PendingTasks: request.PendingTasks,
	}
	return f, nil
}
