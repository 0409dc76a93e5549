package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/adapters/primary/http/dto"
	"dataset-hub-service/internal/adapters/primary/http/middleware"
	"dataset-hub-service/internal/core/services"
)

func (h *Handler) ListPrompts(c *gin.Context) {
	prompts, err := h.promptSvc.ListPrompts(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("list prompts failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

func (h *Handler) SavePrompt(c *gin.Context) {
	var req dto.SavePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	subject, _ := middleware.Subject(c)

	p, err := h.promptSvc.SavePrompt(c.Request.Context(), services.SavePromptCommand{
		Subject:  subject,
		UID:      req.UID,
		Username: req.Username,
		Name:     req.PromptName,
		Prompt:   req.Prompt,
		Domain:   req.Domain,
	})
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
