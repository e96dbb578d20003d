package handler

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"galleria-go/internal/api/dto"
	"galleria-go/internal/api/response"
	"galleria-go/internal/repository"
	"galleria-go/internal/service"
	"galleria-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultMaxUploadSize 服务端直传默认上限，blob.max_upload_size 未配置时生效
const defaultMaxUploadSize = int64(500 * 1024 * 1024) // 500MB

var allowedUploadExts = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true,
	".avi": true, ".mkv": true, ".m4v": true,
}

type VideoHandler struct {
	videoService  *service.VideoService
	syncService   *service.SyncService
	maxUploadSize int64
}

func NewVideoHandler(videoService *service.VideoService, syncService *service.SyncService, maxUploadSize int64) *VideoHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &VideoHandler{
		videoService:  videoService,
		syncService:   syncService,
		maxUploadSize: maxUploadSize,
	}
}

// List GET /api/v1/videos（公开）
// includeHidden=true 返回隐藏行和开场视频行（管理面板用）
func (h *VideoHandler) List(c *gin.Context) {
	params := service.ListParams{
		IncludeHidden:     c.Query("includeHidden") == "true",
		SortByDisplayDate: c.Query("sort") == "display_date",
	}
	if v := c.Query("category"); v != "" {
		params.Category = &v
	}

	data, err := h.videoService.List(params)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "获取视频列表成功", data)
}

// GetIntro GET /api/v1/videos/intro（公开）
func (h *VideoHandler) GetIntro(c *gin.Context) {
	data, err := h.videoService.GetIntro(c.Request.Context())
	if err != nil {
		handleVideoError(c, err)
		return
	}

	// 开场视频固定不变，允许客户端长缓存
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	response.OK(c, "获取开场视频成功", data)
}

// GetByID GET /api/v1/videos/:id（公开）
func (h *VideoHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	info, err := h.videoService.GetByID(id)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "获取视频详情成功", gin.H{"video": info})
}

// Create POST /api/v1/videos（管理员）
// 文件已经直传到对象存储，这里只登记元数据
func (h *VideoHandler) Create(c *gin.Context) {
	var req dto.VideoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	info, err := h.videoService.Create(&req)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.Created(c, "视频创建成功", gin.H{"video": info})
}

// Upload POST /api/v1/videos/upload（管理员，multipart）
func (h *VideoHandler) Upload(c *gin.Context) {
	var req dto.VideoUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	file, err := c.FormFile("video_file")
	if err != nil {
		response.BadRequest(c, "请上传视频文件")
		return
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		response.BadRequest(c, "不支持的文件格式，支持: mp4, mov, webm, avi, mkv, m4v")
		return
	}
	if file.Size <= 0 || file.Size > h.maxUploadSize {
		response.BadRequest(c, fmt.Sprintf("文件大小无效（不能为空，最大 %dMB）", h.maxUploadSize/(1024*1024)))
		return
	}

	f, err := file.Open()
	if err != nil {
		response.InternalError(c, "打开上传文件失败")
		return
	}
	defer f.Close()

	info, err := h.videoService.Upload(c.Request.Context(), &req, f, file.Size, file.Filename)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.Created(c, "视频上传成功", gin.H{"video": info})
}

// Update PATCH /api/v1/videos/:id（管理员）
func (h *VideoHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	var req dto.VideoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	info, err := h.videoService.Update(id, &req)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "更新视频成功", gin.H{"video": info})
}

// SetVisibility POST /api/v1/videos/:id/visibility（管理员）
func (h *VideoHandler) SetVisibility(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	var req dto.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "visible 必须是布尔值")
		return
	}

	info, err := h.videoService.SetVisibility(id, *req.Visible)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "可见性更新成功", gin.H{"success": true, "video": info})
}

// Delete DELETE /api/v1/videos/:id（管理员）
func (h *VideoHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的视频ID")
		return
	}

	result, err := h.videoService.Delete(c.Request.Context(), id)
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, "删除视频成功", dto.DeleteData{
		Success:     true,
		BlobDeleted: result.BlobDeleted,
	})
}

// SyncBlob POST /api/v1/videos/sync-blob（管理员）
func (h *VideoHandler) SyncBlob(c *gin.Context) {
	result, err := h.syncService.Run(c.Request.Context())
	if err != nil {
		handleVideoError(c, err)
		return
	}

	response.OK(c, result.Message, result)
}

func handleVideoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrBlobURLRequired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrSchemaDrift):
		response.FailDetail(c, 500, "SchemaDrift",
			"数据库缺少所需字段", "调用 POST /api/v1/admin/migrate 补齐可选列后重试: "+err.Error())
	case errors.Is(err, repository.ErrInsufficientPrivilege):
		response.FailDetail(c, 500, "InsufficientPrivilege",
			"数据库用户权限不足", "为应用账号授予 videos 表的读写权限（GRANT SELECT, INSERT, UPDATE, DELETE）: "+err.Error())
	case errors.Is(err, service.ErrBlobUnavailable):
		logger.Error("Blob collaborator unavailable", zap.Error(err))
		response.FailDetail(c, 500, "BlobUnavailable", "对象存储不可用", err.Error())
	default:
		logger.Error("Video operation failed", zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}
