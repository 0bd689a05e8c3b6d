package minio_storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// CourseMediaStorage keeps lesson videos and course thumbnails in one
// bucket. The rest of the app only sees opaque object keys; download
// URLs are presigned on demand.
type CourseMediaStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewCourseMediaStorage(storage *MinioStorage, bucketName string, presignedTTL time.Duration) (*CourseMediaStorage, error) {
	exists, err := storage.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err = storage.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &CourseMediaStorage{storage: storage, bucket: bucketName, presignedTTL: presignedTTL}, nil
}

func (s *CourseMediaStorage) UploadThumbnail(
	ctx context.Context,
	courseID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectKey string, err error) {
	objectKey = fmt.Sprintf("courses/%s/thumbnail%s", courseID.String(), extOrBin(filename))
	return s.put(ctx, objectKey, filename, reader, size, contentType)
}

func (s *CourseMediaStorage) UploadVideo(
	ctx context.Context,
	courseID, lessonID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectKey string, err error) {
	objectKey = fmt.Sprintf("courses/%s/lessons/%s/video%s", courseID.String(), lessonID.String(), extOrBin(filename))
	return s.put(ctx, objectKey, filename, reader, size, contentType)
}

func (s *CourseMediaStorage) GetMediaURL(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	u, err := s.storage.client.PresignedGetObject(ctx, s.bucket, objectKey, s.presignedTTL, reqParams)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *CourseMediaStorage) DeleteMedia(ctx context.Context, objectKey string) error {
	return s.storage.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (s *CourseMediaStorage) put(
	ctx context.Context,
	objectKey, filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if contentType == "" {
		contentType = mime.TypeByExtension(extOrBin(filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err := s.storage.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		reader,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

func extOrBin(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}
	return ext
}
