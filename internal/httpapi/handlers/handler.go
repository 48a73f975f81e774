package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chatterbox-app/chatterbox/internal/chat"
	"github.com/chatterbox-app/chatterbox/internal/common"
	"github.com/chatterbox-app/chatterbox/internal/config"
)

type Handler struct {
	Cfg     config.Config
	ChatSvc *chat.Service
}

func NewHandler(cfg config.Config, svc *chat.Service) *Handler {
	return &Handler{Cfg: cfg, ChatSvc: svc}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func (h *Handler) ListModels(c *gin.Context) {
	common.OK(c, gin.H{"models": h.ChatSvc.Models()})
}
