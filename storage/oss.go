package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gabriel-vasile/mimetype"
)

// OSS stores files as objects in an Aliyun OSS bucket.
type OSS struct {
	bucket     *oss.Bucket
	bucketName string
	prefix     string
}

// NewOSS connects to a bucket.
// Endpoint: oss-cn-hangzhou.aliyuncs.com
func NewOSS(endpoint, accessKeyID, accessKeySecret, bucketName, prefix string) (*OSS, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &OSS{
		bucket:     bucket,
		bucketName: bucketName,
		prefix:     dirPrefix(prefix),
	}, nil
}

func (o *OSS) Name() string {
	return "oss"
}

func (o *OSS) key(p string) string {
	return o.prefix + CleanPath(p)
}

// OSS SDK calls don't take a context, so cancellation is checked before each request.

func (o *OSS) Has(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := o.bucket.IsObjectExist(o.key(p))
	if err != nil {
		return false, storageError("exists", p, err)
	}
	return ok, nil
}

func (o *OSS) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := o.bucket.GetObject(o.key(p))
	if isOSSNotFound(err) {
		return nil, fileNotFound(p)
	}
	if err != nil {
		return nil, storageError("read", p, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, storageError("read", p, err)
	}
	return data, nil
}

func (o *OSS) Write(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	contentType := mimetype.Detect(data).String()
	if err := o.bucket.PutObject(o.key(p), bytes.NewReader(data), oss.ContentType(contentType)); err != nil {
		return storageError("write", p, err)
	}
	return nil
}

func (o *OSS) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.bucket.DeleteObject(o.key(p)); err != nil && !isOSSNotFound(err) {
		return storageError("delete", p, err)
	}
	return nil
}

func (o *OSS) DeleteDir(ctx context.Context, dir string) error {
	prefix := o.prefix + dirPrefix(dir)
	if prefix == "" {
		return storageError("delete", dir, fmt.Errorf("refusing to delete the bucket root"))
	}

	marker := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := o.bucket.ListObjects(oss.Prefix(prefix), oss.Marker(marker), oss.MaxKeys(1000))
		if err != nil {
			return storageError("list", dir, err)
		}

		keys := make([]string, 0, len(result.Objects))
		for _, obj := range result.Objects {
			keys = append(keys, obj.Key)
		}
		if len(keys) > 0 {
			if _, err := o.bucket.DeleteObjects(keys, oss.DeleteObjectsQuiet(true)); err != nil {
				return storageError("delete", dir, err)
			}
		}

		if !result.IsTruncated {
			return nil
		}
		marker = result.NextMarker
	}
}

func (o *OSS) Stat(ctx context.Context, p string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	header, err := o.bucket.GetObjectDetailedMeta(o.key(p))
	if isOSSNotFound(err) {
		return FileInfo{}, fileNotFound(p)
	}
	if err != nil {
		return FileInfo{}, storageError("stat", p, err)
	}

	info := FileInfo{
		Path:     CleanPath(p),
		MimeType: header.Get("Content-Type"),
	}
	if size, err := strconv.ParseInt(header.Get("Content-Length"), 10, 64); err == nil {
		info.Size = size
	}
	if modified, err := http.ParseTime(header.Get("Last-Modified")); err == nil {
		info.LastModified = modified
	}
	return info, nil
}

func isOSSNotFound(err error) bool {
	if err == nil {
		return false
	}
	var srvErr oss.ServiceError
	if stderrors.As(err, &srvErr) {
		return srvErr.StatusCode == http.StatusNotFound
	}
	return strings.Contains(err.Error(), "StatusCode=404")
}
