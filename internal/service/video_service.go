package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"galleria-go/internal/api/dto"
	"galleria-go/internal/config"
	infraRedis "galleria-go/internal/infra/redis"
	"galleria-go/internal/model"
	"galleria-go/internal/repository"
	"galleria-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrVideoNotFound   = errors.New("视频不存在")
	ErrTitleRequired   = errors.New("标题不能为空")
	ErrBlobURLRequired = errors.New("缺少视频文件地址")
)

// introCacheKey 开场视频元数据的 Redis 缓存键
const (
	introCacheKey = "galleria:intro_video"
	introCacheTTL = 5 * time.Minute
)

type VideoService struct {
	videoRepo *repository.VideoRepository
	blob      BlobStore
	intro     *config.IntroConfig
}

func NewVideoService(videoRepo *repository.VideoRepository, blob BlobStore, intro *config.IntroConfig) *VideoService {
	return &VideoService{videoRepo: videoRepo, blob: blob, intro: intro}
}

// ListParams 列表查询参数
type ListParams struct {
	Category          *string
	IncludeHidden     bool
	SortByDisplayDate bool
}

// List 查询视频列表
// 公开列表排除 visible=false 的记录和开场视频行；管理端 IncludeHidden=true 全量返回
func (s *VideoService) List(params ListParams) (*dto.VideoListData, error) {
	filter := repository.ListFilter{
		Category:           params.Category,
		IncludeHidden:      params.IncludeHidden,
		OrderByDisplayDate: params.SortByDisplayDate,
	}
	if !params.IncludeHidden {
		filter.ExcludeFileNameMarker = s.intro.FileNameMarker
	}

	videos, err := s.videoRepo.List(filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.VideoInfo, 0, len(videos))
	for i := range videos {
		items = append(items, *toVideoInfo(&videos[i]))
	}
	return &dto.VideoListData{Videos: items, Total: len(items)}, nil
}

// GetByID 获取单个视频
func (s *VideoService) GetByID(id int64) (*dto.VideoInfo, error) {
	video, err := s.videoRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return toVideoInfo(video), nil
}

// Create 为已经上传到对象存储的文件登记目录记录
func (s *VideoService) Create(req *dto.VideoCreateRequest) (*dto.VideoInfo, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	if req.BlobURL == "" {
		return nil, ErrBlobURLRequired
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "uploaded-video"
	}

	video := &model.Video{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		VideoURL:    req.BlobURL,
		BlobURL:     req.BlobURL,
		FileName:    fileName,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
		DisplayDate: req.DisplayDate,
	}

	if err := s.videoRepo.Create(video); err != nil {
		return nil, err
	}

	// 新登记的行可能就是开场视频行，立即失效缓存避免 TTL 内读到旧回落值
	s.invalidateIntroCache()
	return toVideoInfo(video), nil
}

// Upload 服务端直传：文件写入对象存储后登记目录记录
// 对象名追加随机后缀，避免同名文件互相覆盖
func (s *VideoService) Upload(ctx context.Context, req *dto.VideoUploadRequest, reader io.Reader, size int64, fileName string) (*dto.VideoInfo, error) {
	ext := strings.ToLower(path.Ext(fileName))
	base := strings.TrimSuffix(fileName, path.Ext(fileName))
	objectName := fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext)

	contentType := "video/" + strings.TrimPrefix(ext, ".")
	if ext == "" {
		contentType = "video/mp4"
	}

	publicURL, err := s.blob.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlobUnavailable, err)
	}

	return s.Create(&dto.VideoCreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		BlobURL:     publicURL,
		FileName:    fileName,
		FileSize:    &size,
	})
}

// Update 部分更新视频元数据
func (s *VideoService) Update(id int64, req *dto.VideoUpdateRequest) (*dto.VideoInfo, error) {
	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.DisplayDate != nil {
		updates["display_date"] = *req.DisplayDate
	}
	if req.Visible != nil {
		updates["visible"] = *req.Visible
	}

	video, err := s.videoRepo.Update(id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	s.invalidateIntroCache()
	return toVideoInfo(video), nil
}

// SetVisibility 显式设置可见性，目标值由调用方传入，避免并发读改写丢更新
func (s *VideoService) SetVisibility(id int64, visible bool) (*dto.VideoInfo, error) {
	video, err := s.videoRepo.SetVisible(id, visible)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return toVideoInfo(video), nil
}

// DeleteResult 删除结果：对象删除是尽力而为，独立于目录删除
type DeleteResult struct {
	BlobDeleted bool
}

// Delete 删除目录记录，并尽力删除对象存储中的文件
// 对象缺失或删除失败都不阻塞目录删除，只在结果中如实上报
func (s *VideoService) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	video, err := s.videoRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	blobDeleted := s.removeBlob(ctx, video.BlobURL)

	deleted, err := s.videoRepo.Delete(id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// 目录行在读取后、删除前被别的会话删掉了，按已删除处理
		logger.Warn("Video row vanished before delete", zap.Int64("video_id", id))
	}

	s.invalidateIntroCache()
	return &DeleteResult{BlobDeleted: blobDeleted}, nil
}

// removeBlob 依次用完整路径和去掉 Bucket 前缀的路径尝试删除对象
func (s *VideoService) removeBlob(ctx context.Context, blobURL string) bool {
	if blobURL == "" {
		return false
	}

	for _, key := range objectKeyCandidates(blobURL) {
		exists, err := s.blob.StatObject(ctx, key)
		if err != nil {
			logger.Warn("Blob stat failed, skipping removal attempt",
				zap.String("object", key), zap.Error(err))
			continue
		}
		if !exists {
			continue
		}
		if err := s.blob.Remove(ctx, key); err != nil {
			logger.Warn("Blob removal failed, continuing with catalog deletion",
				zap.String("object", key), zap.Error(err))
			continue
		}
		return true
	}
	return false
}

// objectKeyCandidates 从公开 URL 推导可能的对象名
func objectKeyCandidates(blobURL string) []string {
	u, err := url.Parse(blobURL)
	if err != nil {
		return []string{blobURL}
	}
	full := strings.TrimPrefix(u.Path, "/")
	candidates := []string{full}
	// 公开 URL 的首段通常是 Bucket 名
	if i := strings.Index(full, "/"); i >= 0 {
		candidates = append(candidates, full[i+1:])
	}
	return candidates
}

// GetIntro 获取开场视频元数据
// 优先按文件名标记查目录，查不到回落到配置的 Splash 地址；结果缓存在 Redis
func (s *VideoService) GetIntro(ctx context.Context) (*dto.IntroData, error) {
	if cached := s.readIntroCache(ctx); cached != nil {
		return cached, nil
	}

	data := &dto.IntroData{
		SplashURL: s.intro.SplashURL,
		EnterURL:  s.intro.EnterURL,
	}

	if s.intro.FileNameMarker != "" {
		video, err := s.videoRepo.FindByFileNameMarker(s.intro.FileNameMarker)
		switch {
		case err == nil:
			data.Video = toVideoInfo(video)
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 目录里没有开场视频行，用配置地址即可
		default:
			return nil, err
		}
	}

	s.writeIntroCache(ctx, data)
	return data, nil
}

func (s *VideoService) readIntroCache(ctx context.Context) *dto.IntroData {
	rdb := infraRedis.Get()
	if rdb == nil {
		return nil
	}
	raw, err := rdb.Get(ctx, introCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var data dto.IntroData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return &data
}

func (s *VideoService) writeIntroCache(ctx context.Context, data *dto.IntroData) {
	rdb := infraRedis.Get()
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, introCacheKey, raw, introCacheTTL).Err(); err != nil {
		logger.Warn("Intro cache write failed", zap.Error(err))
	}
}

func (s *VideoService) invalidateIntroCache() {
	rdb := infraRedis.Get()
	if rdb == nil {
		return
	}
	if err := rdb.Del(context.Background(), introCacheKey).Err(); err != nil {
		logger.Warn("Intro cache invalidation failed", zap.Error(err))
	}
}

// toVideoInfo 将 model.Video 转换为 dto.VideoInfo
func toVideoInfo(video *model.Video) *dto.VideoInfo {
	return &dto.VideoInfo{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		Category:     video.Category,
		VideoURL:     video.VideoURL,
		BlobURL:      video.BlobURL,
		ThumbnailURL: video.ThumbnailURL,
		FileName:     video.FileName,
		FileSize:     video.FileSize,
		Duration:     video.Duration,
		DisplayDate:  video.DisplayDate,
		Visible:      video.IsVisible(),
		CreatedAt:    video.CreatedAt,
		UpdatedAt:    video.UpdatedAt,
	}
}
