package handler

import (
	"errors"
	"net/http"

	"galleria-go/internal/api/dto"
	"galleria-go/internal/api/middleware"
	"galleria-go/internal/api/response"
	"galleria-go/internal/config"
	"galleria-go/internal/repository"
	"galleria-go/internal/service"
	"galleria-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService *service.AuthService
	videoRepo   *repository.VideoRepository
	adminCfg    *config.AdminConfig
}

func NewAdminHandler(authService *service.AuthService, videoRepo *repository.VideoRepository, adminCfg *config.AdminConfig) *AdminHandler {
	return &AdminHandler{authService: authService, videoRepo: videoRepo, adminCfg: adminCfg}
}

// Login POST /api/v1/admin/login
// 校验共享口令，发放 HTTP-only 会话 Cookie
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPassword) {
			response.Unauthorized(c, err.Error())
			return
		}
		logger.Error("Admin login failed", zap.Error(err))
		response.InternalError(c, "登录失败，请稍后重试")
		return
	}

	maxAge := int(h.adminCfg.SessionDuration().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, session.Token, maxAge, "/", "", h.adminCfg.CookieSecure, true)

	response.OK(c, "登录成功", gin.H{"success": true, "expires_at": session.ExpiresAt})
}

// Logout DELETE /api/v1/admin/login
// 撤销会话并清除 Cookie；未登录调用也返回成功
func (h *AdminHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		h.authService.Logout(c.Request.Context(), token)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.adminCfg.CookieSecure, true)

	response.OK(c, "已退出登录", gin.H{"success": true})
}

// Migrate POST /api/v1/admin/migrate（管理员）
// 补齐 videos 表缺失的可选列并刷新能力缓存
func (h *AdminHandler) Migrate(c *gin.Context) {
	added, err := h.videoRepo.EnsureOptionalColumns()
	if err != nil {
		handleVideoError(c, err)
		return
	}

	msg := "所有可选列已存在"
	if len(added) > 0 {
		msg = "缺失列已补齐"
	}
	response.OK(c, msg, dto.MigrateData{AddedColumns: added, Message: msg})
}
