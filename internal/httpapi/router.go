package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterbox-app/chatterbox/internal/chat"
	"github.com/chatterbox-app/chatterbox/internal/common"
	"github.com/chatterbox-app/chatterbox/internal/config"
	"github.com/chatterbox-app/chatterbox/internal/httpapi/handlers"
	"github.com/chatterbox-app/chatterbox/internal/httpapi/middleware"
)

func NewRouter(cfg config.Config, svc *chat.Service) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(cfg, svc)

	r.GET("/ping", h.Ping)
	r.GET("/models", h.ListModels)

	r.POST("/chats", h.CreateChat)
	r.GET("/chats", h.ListChats)
	r.POST("/chats/:id/select", h.SelectChat)
	r.GET("/chats/:id/messages", h.ListMessages)

	// pipeline runs against the current chat
	r.POST("/messages", h.SendMessage)

	return r
}
