package service

import (
	"context"
	"io"

	infraMinio "galleria-go/internal/infra/minio"
)

// BlobStore 视频对象存储协作方，生产实现为 internal/infra/minio.Store
// 目录删除与对象删除是两个独立的故障域，删除对象失败不阻塞目录操作
type BlobStore interface {
	List(ctx context.Context, maxList int) ([]infraMinio.ObjectInfo, error)
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
	StatObject(ctx context.Context, objectName string) (bool, error)
	PublicURL(objectName string) string
}
