package dto

import "time"

// VideoCreateRequest 登记已上传文件的元数据（POST /videos）
type VideoCreateRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	BlobURL     string     `json:"blobUrl"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	DisplayDate *time.Time `json:"display_date"`
	FileName    string     `json:"file_name"`
	FileSize    *int64     `json:"file_size"`
	Duration    *int       `json:"duration"`
}

// VideoUploadRequest 服务端直传请求（multipart/form-data）
type VideoUploadRequest struct {
	Title       string  `form:"title" binding:"required,min=1,max=200"`
	Description *string `form:"description"`
	Category    *string `form:"category"`
}

// VideoUpdateRequest 部分更新请求（PATCH /videos/:id）
type VideoUpdateRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	DisplayDate *time.Time `json:"display_date"`
	Visible     *bool      `json:"visible"`
}

// VisibilityRequest 可见性切换请求，目标值必须显式给出
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// VideoInfo 视频详情
// Visible 是归一化后的有效值：库里的 NULL 按可见返回
type VideoInfo struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Category     *string    `json:"category"`
	VideoURL     string     `json:"video_url"`
	BlobURL      string     `json:"blob_url"`
	ThumbnailURL *string    `json:"thumbnail_url"`
	FileName     string     `json:"file_name"`
	FileSize     *int64     `json:"file_size"`
	Duration     *int       `json:"duration"`
	DisplayDate  *time.Time `json:"display_date"`
	Visible      bool       `json:"visible"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// VideoListData 视频列表响应
type VideoListData struct {
	Videos []VideoInfo `json:"videos"`
	Total  int         `json:"total"`
}

// DeleteData 删除响应：目录删除与对象删除分别上报
type DeleteData struct {
	Success     bool `json:"success"`
	BlobDeleted bool `json:"blobDeleted"`
}

// SyncResult 同步任务汇总
type SyncResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

// IntroData 开场视频响应：目录行（可能为空）加注入的配置地址
type IntroData struct {
	Video     *VideoInfo `json:"video"`
	SplashURL string     `json:"splash_url"`
	EnterURL  string     `json:"enter_url"`
}
