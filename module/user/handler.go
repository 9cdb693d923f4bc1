package user

import (
	"net/http"

	midsec "WProject/middleware/security"
	"WProject/module/user/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Svc *service.Service
}

type loginReq struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandlerLogin 开放接口（不过版本门控）：签出的 token 带当前版本快照
func (h *Handler) HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "AUTH_INVALID", "error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, res)
}

type assignRoleReq struct {
	RoleName string `json:"role_name" binding:"required"`
}

func (h *Handler) HandlerAssignRole(c *gin.Context) {
	var req assignRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
		return
	}
	changed, err := h.Svc.AssignRole(c.Request.Context(),
		c.GetString(midsec.CtxTenantKey), c.Param("id"), req.RoleName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *Handler) HandlerSuspend(c *gin.Context) {
	changed, err := h.Svc.Suspend(c.Request.Context(),
		c.GetString(midsec.CtxTenantKey), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *Handler) HandlerReactivate(c *gin.Context) {
	changed, err := h.Svc.Reactivate(c.Request.Context(),
		c.GetString(midsec.CtxTenantKey), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

type resetPasswordReq struct {
	PasswordHash string `json:"password_hash" binding:"required"`
}

func (h *Handler) HandlerResetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
		return
	}
	err := h.Svc.ResetPassword(c.Request.Context(),
		c.GetString(midsec.CtxTenantKey), c.Param("id"), req.PasswordHash)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "USER_NOT_FOUND", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *Handler) HandlerForceLogout(c *gin.Context) {
	v, err := h.Svc.ForceLogout(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": v})
}
