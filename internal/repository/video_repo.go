package repository

import (
	"errors"
	"fmt"

	"galleria-go/internal/model"
	"galleria-go/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrSchemaDrift 底层表缺少期望的可选列，且无法降级完成本次操作
	ErrSchemaDrift = errors.New("catalog schema is missing an expected column")
	// ErrInsufficientPrivilege 数据库用户权限不足（SQLSTATE 42501）
	ErrInsufficientPrivilege = errors.New("database user lacks required privileges")
)

// PostgreSQL SQLSTATE
const (
	pgUndefinedColumn       = "42703"
	pgInsufficientPrivilege = "42501"
)

// Capabilities 可选列的存在性，进程启动时探测一次，之后按缓存分支
type Capabilities struct {
	HasVisible      bool
	HasDisplayDate  bool
	HasThumbnailURL bool
}

// DetectCapabilities 探测 videos 表实际具备哪些可选列
// 线上库的 schema 可能落后于代码期望的形状，访问层据此降级
func DetectCapabilities(db *gorm.DB) Capabilities {
	m := db.Migrator()
	caps := Capabilities{
		HasVisible:      m.HasColumn(&model.Video{}, "visible"),
		HasDisplayDate:  m.HasColumn(&model.Video{}, "display_date"),
		HasThumbnailURL: m.HasColumn(&model.Video{}, "thumbnail_url"),
	}
	if !caps.HasVisible || !caps.HasDisplayDate || !caps.HasThumbnailURL {
		logger.Warn("Catalog schema is missing optional columns, degraded mode",
			zap.Bool("visible", caps.HasVisible),
			zap.Bool("display_date", caps.HasDisplayDate),
			zap.Bool("thumbnail_url", caps.HasThumbnailURL),
		)
	}
	return caps
}

// optionalColumns 可选列名到能力开关的映射
func (c Capabilities) allows(column string) bool {
	switch column {
	case "visible":
		return c.HasVisible
	case "display_date":
		return c.HasDisplayDate
	case "thumbnail_url":
		return c.HasThumbnailURL
	default:
		return true
	}
}

// ListFilter 列表查询条件
type ListFilter struct {
	Category *string
	// IncludeHidden 为 false 时过滤 visible=false 的记录（NULL 视为可见）
	IncludeHidden bool
	// ExcludeFileNameMarker 非空时按文件名子串排除开场视频行
	ExcludeFileNameMarker string
	// OrderByDisplayDate 按自定义展示日期排序，缺省按创建时间倒序
	OrderByDisplayDate bool
}

type VideoRepository struct {
	db   *gorm.DB
	caps Capabilities
}

func NewVideoRepository(db *gorm.DB, caps Capabilities) *VideoRepository {
	return &VideoRepository{db: db, caps: caps}
}

// Capabilities 返回当前缓存的能力探测结果
func (r *VideoRepository) Capabilities() Capabilities {
	return r.caps
}

// List 按条件查询视频列表
func (r *VideoRepository) List(filter ListFilter) ([]model.Video, error) {
	query := r.db.Model(&model.Video{})

	if filter.Category != nil && *filter.Category != "" {
		query = query.Where("category = ?", *filter.Category)
	}
	if !filter.IncludeHidden && r.caps.HasVisible {
		// 历史行 visible 可能为 NULL，按可见处理
		query = query.Where("visible IS NULL OR visible = ?", true)
	}
	if filter.ExcludeFileNameMarker != "" {
		query = query.Where("file_name NOT LIKE ?", "%"+filter.ExcludeFileNameMarker+"%")
	}

	if filter.OrderByDisplayDate && r.caps.HasDisplayDate {
		query = query.Order("COALESCE(display_date, created_at) DESC")
	} else {
		query = query.Order("created_at DESC")
	}

	var videos []model.Video
	if err := query.Find(&videos).Error; err != nil {
		return nil, r.classify(err)
	}
	return videos, nil
}

// GetByID 根据 ID 获取视频
func (r *VideoRepository) GetByID(id int64) (*model.Video, error) {
	var video model.Video
	if err := r.db.Where("id = ?", id).First(&video).Error; err != nil {
		return nil, r.classify(err)
	}
	return &video, nil
}

// FindByBlobOrFileName 按对象地址或文件名查找已有记录（同步任务的存在性检查）
func (r *VideoRepository) FindByBlobOrFileName(blobURL, fileName string) (*model.Video, error) {
	var video model.Video
	err := r.db.
		Where("blob_url = ? OR video_url = ? OR file_name = ?", blobURL, blobURL, fileName).
		First(&video).Error
	if err != nil {
		return nil, r.classify(err)
	}
	return &video, nil
}

// FindByFileNameMarker 按文件名子串查找开场视频行
func (r *VideoRepository) FindByFileNameMarker(marker string) (*model.Video, error) {
	var video model.Video
	err := r.db.
		Where("file_name LIKE ?", "%"+marker+"%").
		Order("created_at DESC").
		First(&video).Error
	if err != nil {
		return nil, r.classify(err)
	}
	return &video, nil
}

// Create 插入视频记录
// 不显式写 visible，交给库默认值；缺失的可选列直接跳过（降级写入）
func (r *VideoRepository) Create(video *model.Video) error {
	omit := []string{"Visible"}
	if !r.caps.HasDisplayDate {
		omit = append(omit, "DisplayDate")
	}
	if !r.caps.HasThumbnailURL {
		omit = append(omit, "ThumbnailURL")
	}
	if err := r.db.Omit(omit...).Create(video).Error; err != nil {
		return r.classify(err)
	}
	return nil
}

// Update 按字段更新视频
// 缺失列对应的字段被丢弃（降级更新）；全部被丢弃时返回 ErrSchemaDrift
func (r *VideoRepository) Update(id int64, updates map[string]interface{}) (*model.Video, error) {
	if len(updates) == 0 {
		return r.GetByID(id)
	}

	reduced := make(map[string]interface{}, len(updates))
	for column, value := range updates {
		if !r.caps.allows(column) {
			logger.Warn("Dropping update for missing column", zap.String("column", column))
			continue
		}
		reduced[column] = value
	}
	if len(reduced) == 0 {
		return nil, fmt.Errorf("%w: none of the requested fields exist", ErrSchemaDrift)
	}

	result := r.db.Model(&model.Video{}).Where("id = ?", id).Updates(reduced)
	if result.Error != nil {
		return nil, r.classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// SetVisible 显式设置可见性（调用方传入目标值，不做读改写）
// visible 列缺失时没有可降级的写法，原始实现的 category 哨兵标记不再沿用
func (r *VideoRepository) SetVisible(id int64, visible bool) (*model.Video, error) {
	if !r.caps.HasVisible {
		return nil, fmt.Errorf("%w: visible column not present, run the migrate endpoint", ErrSchemaDrift)
	}
	return r.Update(id, map[string]interface{}{"visible": visible})
}

// Delete 删除视频记录，记录不存在属于正常结果，返回 false 而不是错误
func (r *VideoRepository) Delete(id int64) (bool, error) {
	result := r.db.Where("id = ?", id).Delete(&model.Video{})
	if result.Error != nil {
		return false, r.classify(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// EnsureOptionalColumns 补齐缺失的可选列并刷新能力缓存（管理端迁移接口用）
func (r *VideoRepository) EnsureOptionalColumns() ([]string, error) {
	m := r.db.Migrator()
	var added []string
	for _, field := range []string{"Visible", "DisplayDate", "ThumbnailURL"} {
		if m.HasColumn(&model.Video{}, field) {
			continue
		}
		if err := m.AddColumn(&model.Video{}, field); err != nil {
			return added, r.classify(fmt.Errorf("add column %s: %w", field, err))
		}
		added = append(added, field)
	}
	r.caps = DetectCapabilities(r.db)
	return added, nil
}

// classify 将驱动层错误映射为仓储层哨兵错误
func (r *VideoRepository) classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedColumn:
			return fmt.Errorf("%w: %s", ErrSchemaDrift, pgErr.Message)
		case pgInsufficientPrivilege:
			return fmt.Errorf("%w: %s", ErrInsufficientPrivilege, pgErr.Message)
		}
	}
	return err
}
