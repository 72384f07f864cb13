package task

import (
	"context"
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	taskform "taskboard/forms/tasks"
	"taskboard/response"
	"taskboard/services"
)

type Task struct {
	fb        *firestore.Client
	log       *logrus.Entry
	listLimit int
}

func NewTaskHandler(fb *firestore.Client, log *logrus.Entry, listLimit int) *Task {
	return &Task{fb: fb, log: log, listLimit: listLimit}
}

func TaskController(router gin.IRouter, fb *firestore.Client, log *logrus.Entry, listLimit int) {
	NewTaskHandler(fb, log, listLimit).EnrichRoutes(router)
}

func (h *Task) EnrichRoutes(router gin.IRouter) {
	routes := router.Group("/tasks")
	routes.GET("", h.listTasksAction)
	routes.POST("", h.createTaskAction)
	routes.GET("/:id", h.getTaskAction)
	routes.PUT("/:id", h.replaceTaskAction)
	routes.DELETE("/:id", h.deleteTaskAction)
}

// fail logs infrastructure errors and writes the client-facing error.
func (h *Task) fail(c *gin.Context, log *logrus.Entry, err error, msg string) {
	rerr := response.ResolveError(err)
	if rerr.Status() >= http.StatusInternalServerError {
		log.WithError(err).Error(msg)
	}
	response.HandleError(rerr, c)
}

func (h *Task) listTasksAction(c *gin.Context) {
	const op = "controller.task.list"
	log := h.log.WithField("operation", op)

	opts, err := services.ParseListOptions(c.Request.URL.Query(), h.listLimit)
	if err != nil {
		h.fail(c, log, err, "failed to parse list options")
		return
	}

	result, err := services.ListTasks(c.Request.Context(), h.fb, opts)
	if err != nil {
		h.fail(c, log, err, "failed to list tasks")
		return
	}

	response.JSON(c, http.StatusOK, "OK", result)
}

func (h *Task) getTaskAction(c *gin.Context) {
	const op = "controller.task.get"
	log := h.log.WithField("operation", op)

	opts, err := services.ParseSelect(c.Request.URL.Query())
	if err != nil {
		h.fail(c, log, err, "failed to parse select")
		return
	}

	task, err := services.GetTaskDocument(c.Request.Context(), h.fb, c.Param("id"), opts)
	if err != nil {
		h.fail(c, log, err, "failed to get task")
		return
	}

	response.JSON(c, http.StatusOK, "OK", task)
}

func (h *Task) createTaskAction(c *gin.Context) {
	const op = "controller.task.create"
	log := h.log.WithField("operation", op)

	form, verr := taskform.NewTaskForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}

	task := form.(*taskform.TaskForm).Task()
	if err := services.CreateTask(context.WithoutCancel(c.Request.Context()), h.fb, task); err != nil {
		h.fail(c, log, err, "failed to create task")
		return
	}

	log.WithField("task", task.TaskID).Debug("task created")
	response.JSON(c, http.StatusCreated, "Task created", task)
}

func (h *Task) replaceTaskAction(c *gin.Context) {
	const op = "controller.task.replace"
	log := h.log.WithField("operation", op)

	form, verr := taskform.NewTaskForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}

	task := form.(*taskform.TaskForm).Task()
	if err := services.ReplaceTask(context.WithoutCancel(c.Request.Context()), h.fb, c.Param("id"), task); err != nil {
		h.fail(c, log, err, "failed to replace task")
		return
	}

	response.JSON(c, http.StatusOK, "Task updated", task)
}

func (h *Task) deleteTaskAction(c *gin.Context) {
	const op = "controller.task.delete"
	log := h.log.WithField("operation", op)

	task, err := services.DeleteTask(context.WithoutCancel(c.Request.Context()), h.fb, c.Param("id"))
	if err != nil {
		h.fail(c, log, err, "failed to delete task")
		return
	}

	log.WithField("task", task.TaskID).Debug("task deleted")
	c.Status(http.StatusNoContent)
}
