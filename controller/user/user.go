package user

import (
	"context"
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userform "taskboard/forms/users"
	"taskboard/response"
	"taskboard/services"
)

type User struct {
	fb  *firestore.Client
	log *logrus.Entry
}

func NewUserHandler(fb *firestore.Client, log *logrus.Entry) *User {
	return &User{fb: fb, log: log}
}

func UserController(router gin.IRouter, fb *firestore.Client, log *logrus.Entry) {
	NewUserHandler(fb, log).EnrichRoutes(router)
}

func (h *User) EnrichRoutes(router gin.IRouter) {
	routes := router.Group("/users")
	routes.GET("", h.listUsersAction)
	routes.POST("", h.createUserAction)
	routes.GET("/:id", h.getUserAction)
	routes.PUT("/:id", h.updateUserAction)
	routes.DELETE("/:id", h.deleteUserAction)
}

func (h *User) fail(c *gin.Context, log *logrus.Entry, err error, msg string) {
	rerr := response.ResolveError(err)
	if rerr.Status() >= http.StatusInternalServerError {
		log.WithError(err).Error(msg)
	}
	response.HandleError(rerr, c)
}

func (h *User) listUsersAction(c *gin.Context) {
	const op = "controller.user.list"
	log := h.log.WithField("operation", op)

	// users are unbounded unless the caller passes a limit
	opts, err := services.ParseListOptions(c.Request.URL.Query(), 0)
	if err != nil {
		h.fail(c, log, err, "failed to parse list options")
		return
	}

	result, err := services.ListUsers(c.Request.Context(), h.fb, opts)
	if err != nil {
		h.fail(c, log, err, "failed to list users")
		return
	}

	response.JSON(c, http.StatusOK, "OK", result)
}

func (h *User) getUserAction(c *gin.Context) {
	const op = "controller.user.get"
	log := h.log.WithField("operation", op)

	opts, err := services.ParseSelect(c.Request.URL.Query())
	if err != nil {
		h.fail(c, log, err, "failed to parse select")
		return
	}

	user, err := services.GetUserDocument(c.Request.Context(), h.fb, c.Param("id"), opts)
	if err != nil {
		h.fail(c, log, err, "failed to get user")
		return
	}

	response.JSON(c, http.StatusOK, "OK", user)
}

func (h *User) createUserAction(c *gin.Context) {
	const op = "controller.user.create"
	log := h.log.WithField("operation", op)

	form, verr := userform.NewCreateUserForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}

	f := form.(*userform.CreateUserForm)
	user, err := services.CreateUser(context.WithoutCancel(c.Request.Context()), h.fb, f.Name, f.Email, f.PendingTasks)
	if err != nil {
		h.fail(c, log, err, "failed to create user")
		return
	}

	log.WithFields(logrus.Fields{
		"user":         user.UserID,
		"pendingTasks": len(user.PendingTasks),
	}).Debug("user created")
	response.JSON(c, http.StatusCreated, "User created", user)
}

func (h *User) updateUserAction(c *gin.Context) {
	const op = "controller.user.update"
	log := h.log.WithField("operation", op)

	form, verr := userform.NewUpdateUserForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}

	user, err := services.UpdateUser(context.WithoutCancel(c.Request.Context()), h.fb, c.Param("id"), form.(*userform.UpdateUserForm).Patch)
	if err != nil {
		h.fail(c, log, err, "failed to update user")
		return
	}

	response.JSON(c, http.StatusOK, "User updated", user)
}

func (h *User) deleteUserAction(c *gin.Context) {
	const op = "controller.user.delete"
	log := h.log.WithField("operation", op)

	user, err := services.DeleteUser(context.WithoutCancel(c.Request.Context()), h.fb, c.Param("id"))
	if err != nil {
		h.fail(c, log, err, "failed to delete user")
		return
	}

	log.WithField("user", user.UserID).Debug("user deleted")
	c.Status(http.StatusNoContent)
}
