package connection

import (
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/config"
	"taskboard/controller/task"
	"taskboard/controller/user"
	"taskboard/middleware"
	"taskboard/response"
)

// NewRouter assembles the gin engine serving the task and user routes.
func NewRouter(cfg *config.Config, fb *firestore.Client, log *logrus.Entry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	if len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		router.Use(cors.New(corsCfg))
	} else {
		router.Use(cors.Default())
	}

	router.GET("/", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, "Api is running!", nil)
	})

	router.NoRoute(func(c *gin.Context) {
		response.HandleError(response.NewNotFoundError("route not found"), c)
	})

	api := router.Group("")
	if cfg.JWTSecret != "" {
		api.Use(middleware.AccessTokenMiddleware(cfg.JWTSecret))
	}

	task.TaskController(api, fb, log, cfg.TaskListLimit)
	user.UserController(api, fb, log)

	return router
}

func StartServer(cfg *config.Config, fb *firestore.Client, log *logrus.Entry) error {
	router := NewRouter(cfg, fb, log)
	log.WithField("port", cfg.Port).Info("API listening")
	return router.Run(":" + cfg.Port)
}
