package storage

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	redis "github.com/go-redis/redis/v8"
)

const (
	redisDataField  = "data"
	redisMtimeField = "mtime"
)

// Redis stores each file as a hash holding its bytes and modification time.
// It suits the cache role where rendered variants may expire.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedis wraps client. Keys are prefixed with prefix; a positive ttl expires written files.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *Redis) Name() string {
	return "redis"
}

func (r *Redis) key(p string) string {
	return r.prefix + CleanPath(p)
}

func (r *Redis) Has(ctx context.Context, p string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(p)).Result()
	if err != nil {
		return false, storageError("exists", p, err)
	}
	return n > 0, nil
}

func (r *Redis) Read(ctx context.Context, p string) ([]byte, error) {
	data, err := r.client.HGet(ctx, r.key(p), redisDataField).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, fileNotFound(p)
	}
	if err != nil {
		return nil, storageError("read", p, err)
	}
	return data, nil
}

func (r *Redis) Write(ctx context.Context, p string, data []byte) error {
	key := r.key(p)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, redisDataField, data, redisMtimeField, r.now().Unix())
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return storageError("write", p, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, p string) error {
	if err := r.client.Del(ctx, r.key(p)).Err(); err != nil {
		return storageError("delete", p, err)
	}
	return nil
}

func (r *Redis) DeleteDir(ctx context.Context, dir string) error {
	pattern := escapeGlob(r.prefix+dirPrefix(dir)) + "*"

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return storageError("scan", dir, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return storageError("delete", dir, err)
	}
	return nil
}

func (r *Redis) Stat(ctx context.Context, p string) (FileInfo, error) {
	fields, err := r.client.HGetAll(ctx, r.key(p)).Result()
	if err != nil {
		return FileInfo{}, storageError("stat", p, err)
	}
	data, ok := fields[redisDataField]
	if !ok {
		return FileInfo{}, fileNotFound(p)
	}

	info := FileInfo{
		Path:     CleanPath(p),
		Size:     int64(len(data)),
		MimeType: mimetype.Detect([]byte(data)).String(),
	}
	if sec, err := strconv.ParseInt(fields[redisMtimeField], 10, 64); err == nil {
		info.LastModified = time.Unix(sec, 0)
	}
	return info, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
