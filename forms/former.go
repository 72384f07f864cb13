package forms

import (
	"github.com/gin-gonic/gin"

	"taskboard/response"
)

type Former interface {
	ParseAndValidate(c *gin.Context) (Former, response.Error)
}

// InvalidStructure is returned when the body is not the expected JSON shape.
func InvalidStructure() *response.ValidationError {
	ve := response.NewValidationError()
	ve.SetError(response.GeneralErrorKey, response.InvalidRequestStructure, "invalid request structure")
	return ve
}
