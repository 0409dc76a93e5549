package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/adapters/primary/http/dto"
)

func (h *Handler) RegisterUID(c *gin.Context) {
	var req dto.RegisterUIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := authorize(c, req.UID); err != nil {
		mapDomainError(c, err)
		return
	}

	user, err := h.userSvc.RegisterUID(c.Request.Context(), req.UID, req.Email, req.Name)
	if err != nil {
		log.WithError(err).WithField("uid", req.UID).Error("register uid failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetAvatar(c *gin.Context) {
	avatar, err := h.userSvc.Avatar(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AvatarResponse{Avatar: avatar})
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.userSvc.ProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) GetProfileByUID(c *gin.Context) {
	profile, err := h.userSvc.ProfileByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
