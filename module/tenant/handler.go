package tenant

import (
	"net/http"

	midsec "WProject/middleware/security"
	tenantmodel "WProject/module/tenant/model"
	"WProject/module/tenant/service"

	"github.com/gin-gonic/gin"
)

// Handler 角色/策略写接口。版本门控在路由层已经挡过一遍，
// 这里只读 context 里的租户身份。
type Handler struct {
	Svc *service.Service
}

type createRoleReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) HandlerCreateRole(c *gin.Context) {
	var req createRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
		return
	}
	tenantID := c.GetString(midsec.CtxTenantKey)

	role, err := h.Svc.CreateRole(c.Request.Context(), tenantID, req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"code": "ROLE_CONFLICT", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *Handler) HandlerDeleteRole(c *gin.Context) {
	tenantID := c.GetString(midsec.CtxTenantKey)
	name := c.Param("role")

	if err := h.Svc.DeleteRole(c.Request.Context(), tenantID, name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "ROLE_NOT_FOUND", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

type policyReq struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *Handler) HandlerAddPolicy(c *gin.Context) {
	var req policyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
		return
	}
	p := tenantmodel.RolePolicy{
		TenantID: c.GetString(midsec.CtxTenantKey),
		RoleName: c.Param("role"),
		Resource: req.Resource,
		Action:   req.Action,
	}
	changed, err := h.Svc.AddPolicy(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *Handler) HandlerRemovePolicy(c *gin.Context) {
	var req policyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
		return
	}
	p := tenantmodel.RolePolicy{
		TenantID: c.GetString(midsec.CtxTenantKey),
		RoleName: c.Param("role"),
		Resource: req.Resource,
		Action:   req.Action,
	}
	changed, err := h.Svc.RemovePolicy(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
