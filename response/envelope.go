package response

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Message: message, Data: data})
}

func HandleError(err Error, c *gin.Context) {
	c.AbortWithStatusJSON(err.Status(), Envelope{Message: err.Error(), Data: err.Payload()})
}
