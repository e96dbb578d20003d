package model

import "time"

// Video 视频目录记录，只存元数据，视频字节在对象存储里
type Video struct {
	ID           int64      `gorm:"primaryKey;autoIncrement;comment:视频标识" json:"id"`
	Title        string     `gorm:"size:200;not null;comment:视频标题" json:"title"`
	Description  *string    `gorm:"type:text;comment:视频描述" json:"description"`
	Category     *string    `gorm:"size:100;index:idx_videos_category;comment:分类标签" json:"category"`
	VideoURL     string     `gorm:"size:500;not null;comment:视频播放地址" json:"video_url"`
	BlobURL      string     `gorm:"size:500;not null;comment:对象存储地址" json:"blob_url"`
	ThumbnailURL *string    `gorm:"size:500;comment:缩略图地址" json:"thumbnail_url"`
	FileName     string     `gorm:"size:255;not null;index:idx_videos_file_name;comment:文件名" json:"file_name"`
	FileSize     *int64     `gorm:"comment:文件大小（字节）" json:"file_size"`
	Duration     *int       `gorm:"comment:视频时长（秒）" json:"duration"`
	DisplayDate  *time.Time `gorm:"comment:自定义展示日期" json:"display_date"`
	Visible      *bool      `gorm:"default:true;comment:是否在公开列表展示" json:"visible"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index:idx_videos_created_at;comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime;comment:更新时间" json:"updated_at"`
}

func (Video) TableName() string {
	return "videos"
}

// IsVisible 历史数据里 visible 可能为 NULL，按可见处理
func (v *Video) IsVisible() bool {
	return v.Visible == nil || *v.Visible
}
