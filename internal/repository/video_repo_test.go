package repository

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"galleria-go/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDBSeq 保证同一测试内多次开库也各自独立
var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func setupRepo(t *testing.T) *VideoRepository {
	t.Helper()
	db := openTestDB(t)
	if err := db.AutoMigrate(&model.Video{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewVideoRepository(db, DetectCapabilities(db))
}

// legacyVideo 模拟落后于代码的旧表：缺 visible/display_date/thumbnail_url 列
type legacyVideo struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	Title       string
	Description *string
	Category    *string
	VideoURL    string `gorm:"column:video_url"`
	BlobURL     string `gorm:"column:blob_url"`
	FileName    string `gorm:"column:file_name"`
	FileSize    *int64
	Duration    *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (legacyVideo) TableName() string { return "videos" }

func setupLegacyRepo(t *testing.T) *VideoRepository {
	t.Helper()
	db := openTestDB(t)
	if err := db.AutoMigrate(&legacyVideo{}); err != nil {
		t.Fatalf("migrate legacy: %v", err)
	}
	return NewVideoRepository(db, DetectCapabilities(db))
}

func newVideo(title, fileName string) *model.Video {
	url := "http://blob.local/gallery-videos/" + fileName
	return &model.Video{
		Title:    title,
		VideoURL: url,
		BlobURL:  url,
		FileName: fileName,
	}
}

func TestDetectCapabilities(t *testing.T) {
	full := setupRepo(t)
	caps := full.Capabilities()
	if !caps.HasVisible || !caps.HasDisplayDate || !caps.HasThumbnailURL {
		t.Errorf("full schema capabilities = %+v, want all true", caps)
	}

	legacy := setupLegacyRepo(t)
	caps = legacy.Capabilities()
	if caps.HasVisible || caps.HasDisplayDate || caps.HasThumbnailURL {
		t.Errorf("legacy schema capabilities = %+v, want all false", caps)
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo := setupRepo(t)

	video := newVideo("Demo", "demo.mp4")
	if err := repo.Create(video); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if video.ID <= 0 {
		t.Fatalf("Create() id = %d, want positive", video.ID)
	}

	got, err := repo.GetByID(video.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Demo" {
		t.Errorf("Title = %q, want %q", got.Title, "Demo")
	}
	if got.BlobURL != video.BlobURL {
		t.Errorf("BlobURL = %q, want %q", got.BlobURL, video.BlobURL)
	}
	if got.FileName != "demo.mp4" {
		t.Errorf("FileName = %q, want %q", got.FileName, "demo.mp4")
	}
	// 创建时不写 visible，库默认值生效
	if !got.IsVisible() {
		t.Errorf("IsVisible() = false, want true (store default)")
	}
}

func TestListDefaultVisible(t *testing.T) {
	repo := setupRepo(t)

	a := newVideo("A", "a.mp4")
	b := newVideo("B", "b.mp4")
	for _, v := range []*model.Video{a, b} {
		if err := repo.Create(v); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	// 历史数据：visible 为 NULL 的行必须按可见处理
	if err := repo.db.Exec("UPDATE videos SET visible = NULL WHERE id = ?", a.ID).Error; err != nil {
		t.Fatalf("null out visible: %v", err)
	}

	videos, err := repo.List(ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("List() len = %d, want 2", len(videos))
	}
}

func TestListHiddenFiltering(t *testing.T) {
	repo := setupRepo(t)

	shown := newVideo("Shown", "shown.mp4")
	hidden := newVideo("Hidden", "hidden.mp4")
	for _, v := range []*model.Video{shown, hidden} {
		if err := repo.Create(v); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := repo.SetVisible(hidden.ID, false); err != nil {
		t.Fatalf("SetVisible() error = %v", err)
	}

	public, err := repo.List(ListFilter{})
	if err != nil {
		t.Fatalf("List(public) error = %v", err)
	}
	if len(public) != 1 || public[0].ID != shown.ID {
		t.Errorf("public list = %v, want only video %d", ids(public), shown.ID)
	}

	all, err := repo.List(ListFilter{IncludeHidden: true})
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin list len = %d, want 2", len(all))
	}
}

func TestListCategoryAndMarker(t *testing.T) {
	repo := setupRepo(t)

	cat := "music"
	music := newVideo("Music", "music.mp4")
	music.Category = &cat
	intro := newVideo("Intro", "website-vid-heaven.mp4")
	other := newVideo("Other", "other.mp4")
	for _, v := range []*model.Video{music, intro, other} {
		if err := repo.Create(v); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	byCat, err := repo.List(ListFilter{Category: &cat})
	if err != nil {
		t.Fatalf("List(category) error = %v", err)
	}
	if len(byCat) != 1 || byCat[0].ID != music.ID {
		t.Errorf("category list = %v, want only video %d", ids(byCat), music.ID)
	}

	noIntro, err := repo.List(ListFilter{ExcludeFileNameMarker: "website-vid-heaven"})
	if err != nil {
		t.Fatalf("List(marker) error = %v", err)
	}
	for _, v := range noIntro {
		if v.ID == intro.ID {
			t.Errorf("marker list still contains intro row %d", intro.ID)
		}
	}
	if len(noIntro) != 2 {
		t.Errorf("marker list len = %d, want 2", len(noIntro))
	}
}

func TestSetVisiblePreservesOtherFields(t *testing.T) {
	repo := setupRepo(t)

	cat := "demos"
	video := newVideo("Keep Me", "keep.mp4")
	video.Category = &cat
	if err := repo.Create(video); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.SetVisible(video.ID, false); err != nil {
		t.Fatalf("SetVisible(false) error = %v", err)
	}
	got, err := repo.SetVisible(video.ID, true)
	if err != nil {
		t.Fatalf("SetVisible(true) error = %v", err)
	}

	if !got.IsVisible() {
		t.Errorf("IsVisible() = false, want true after restore")
	}
	if got.Title != "Keep Me" {
		t.Errorf("Title = %q, want %q", got.Title, "Keep Me")
	}
	if got.Category == nil || *got.Category != "demos" {
		t.Errorf("Category = %v, want demos", got.Category)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Update(9999, map[string]interface{}{"title": "nope"})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Update(missing) error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestDeleteNotFoundIsNormal(t *testing.T) {
	repo := setupRepo(t)

	deleted, err := repo.Delete(12345)
	if err != nil {
		t.Fatalf("Delete(missing) error = %v, want nil", err)
	}
	if deleted {
		t.Errorf("Delete(missing) = true, want false")
	}
}

func TestFindByBlobOrFileName(t *testing.T) {
	repo := setupRepo(t)

	video := newVideo("Find Me", "find-me.mp4")
	if err := repo.Create(video); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	byURL, err := repo.FindByBlobOrFileName(video.BlobURL, "unrelated.mp4")
	if err != nil {
		t.Fatalf("FindByBlobOrFileName(url) error = %v", err)
	}
	if byURL.ID != video.ID {
		t.Errorf("by url id = %d, want %d", byURL.ID, video.ID)
	}

	byName, err := repo.FindByBlobOrFileName("http://elsewhere/x.mp4", "find-me.mp4")
	if err != nil {
		t.Fatalf("FindByBlobOrFileName(name) error = %v", err)
	}
	if byName.ID != video.ID {
		t.Errorf("by name id = %d, want %d", byName.ID, video.ID)
	}

	if _, err := repo.FindByBlobOrFileName("http://elsewhere/y.mp4", "nope.mp4"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("miss error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestLegacySchemaDegradation(t *testing.T) {
	repo := setupLegacyRepo(t)

	// 降级写入：缺失列被跳过，插入仍然成功
	video := newVideo("Legacy", "legacy.mp4")
	if err := repo.Create(video); err != nil {
		t.Fatalf("Create() on legacy schema error = %v", err)
	}

	// 缺 visible 列时列表不做可见性过滤，全部按可见返回
	videos, err := repo.List(ListFilter{})
	if err != nil {
		t.Fatalf("List() on legacy schema error = %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("List() len = %d, want 1", len(videos))
	}

	// 降级更新：存在的列照常更新，缺失的列被丢弃
	got, err := repo.Update(video.ID, map[string]interface{}{
		"title":        "Renamed",
		"display_date": time.Now(),
	})
	if err != nil {
		t.Fatalf("Update() on legacy schema error = %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("Title = %q, want %q", got.Title, "Renamed")
	}

	// 请求的字段全部缺失时才报 schema drift
	if _, err := repo.Update(video.ID, map[string]interface{}{"visible": false}); !errors.Is(err, ErrSchemaDrift) {
		t.Errorf("Update(visible only) error = %v, want ErrSchemaDrift", err)
	}
	if _, err := repo.SetVisible(video.ID, false); !errors.Is(err, ErrSchemaDrift) {
		t.Errorf("SetVisible() error = %v, want ErrSchemaDrift", err)
	}
}

func TestEnsureOptionalColumns(t *testing.T) {
	repo := setupLegacyRepo(t)

	added, err := repo.EnsureOptionalColumns()
	if err != nil {
		t.Fatalf("EnsureOptionalColumns() error = %v", err)
	}
	if len(added) != 3 {
		t.Errorf("added columns = %v, want 3 entries", added)
	}

	caps := repo.Capabilities()
	if !caps.HasVisible || !caps.HasDisplayDate || !caps.HasThumbnailURL {
		t.Errorf("capabilities after migrate = %+v, want all true", caps)
	}

	// 迁移后可见性操作恢复可用
	video := newVideo("Post Migrate", "post-migrate.mp4")
	if err := repo.Create(video); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.SetVisible(video.ID, false); err != nil {
		t.Errorf("SetVisible() after migrate error = %v", err)
	}

	// 再次执行应当无事可做
	added, err = repo.EnsureOptionalColumns()
	if err != nil {
		t.Fatalf("EnsureOptionalColumns() second run error = %v", err)
	}
	if len(added) != 0 {
		t.Errorf("second run added = %v, want empty", added)
	}
}

func ids(videos []model.Video) []int64 {
	out := make([]int64, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}
