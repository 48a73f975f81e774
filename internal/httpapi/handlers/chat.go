package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chatterbox-app/chatterbox/internal/chat"
	"github.com/chatterbox-app/chatterbox/internal/common"
)

func (h *Handler) CreateChat(c *gin.Context) {
	created, err := h.ChatSvc.NewChat(c.Request.Context())
	if err != nil {
		failStore(c, err, "failed to create chat")
		return
	}
	common.OK(c, gin.H{
		"chat":     created,
		"greeting": chat.Greeting,
	})
}

func (h *Handler) ListChats(c *gin.Context) {
	entries, err := h.ChatSvc.Sidebar(c.Request.Context())
	if err != nil {
		failStore(c, err, "failed to list chats")
		return
	}
	common.OK(c, gin.H{"chats": entries})
}

func (h *Handler) SelectChat(c *gin.Context) {
	id := c.Param("id")

	selected, msgs, err := h.ChatSvc.SelectChat(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "chat not found")
			return
		}
		failStore(c, err, "failed to select chat")
		return
	}
	common.OK(c, gin.H{
		"chat":     selected,
		"messages": msgs,
		"greeting": chat.Greeting,
	})
}

func (h *Handler) ListMessages(c *gin.Context) {
	id := c.Param("id")

	msgs, err := h.ChatSvc.Messages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "chat not found")
			return
		}
		failStore(c, err, "failed to list messages")
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	Message string `json:"message" binding:"required"`
	Model   string `json:"model" binding:"required"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	res, err := h.ChatSvc.Send(c.Request.Context(), req.Message, req.Model)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBusy):
			common.Fail(c, http.StatusConflict, 40901, "a send is already in progress")
		case errors.Is(err, chat.ErrEmptyMessage):
			common.Fail(c, http.StatusUnprocessableEntity, 42201, "message is empty")
		case errors.Is(err, gorm.ErrRecordNotFound):
			common.Fail(c, http.StatusNotFound, 40404, "chat not found")
		case errors.Is(err, chat.ErrStore):
			common.Fail(c, http.StatusServiceUnavailable, 50301, "storage unavailable")
		default:
			// the error bubble: rendered distinctly from normal messages
			c.JSON(http.StatusBadGateway, gin.H{
				"code":    50201,
				"message": "completion failed",
				"data":    gin.H{"error_bubble": "Error: " + err.Error()},
			})
		}
		return
	}

	common.OK(c, res)
}

func failStore(c *gin.Context, err error, fallback string) {
	if errors.Is(err, chat.ErrStore) {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "storage unavailable")
		return
	}
	common.Fail(c, http.StatusInternalServerError, 50001, fallback)
}
