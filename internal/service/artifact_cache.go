package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"expert_review_backend/internal/report"
	"expert_review_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"
)

const artifactKeyPrefix = "report:artifact:"

// ArtifactCache 缓存渲染结果。键为页面摘要 + 扩展名，内容用 zstd 压缩。
// 报告由 FINAL 评审完全决定，因此缓存条目无需失效，只靠 TTL 回收。
type ArtifactCache struct {
	rdb redis.Cmdable
	ttl time.Duration
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewArtifactCache(rdb redis.Cmdable, ttl time.Duration) (*ArtifactCache, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &ArtifactCache{rdb: rdb, ttl: ttl, enc: enc, dec: dec}, nil
}

func ArtifactKey(digest, ext string) string {
	return artifactKeyPrefix + digest + "." + ext
}

// Get returns (nil, false, nil) on a miss.
func (c *ArtifactCache) Get(ctx context.Context, key string) (*report.Artifact, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		monitoring.ArtifactCache.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		monitoring.ArtifactCache.WithLabelValues("error").Inc()
		return nil, false, err
	}

	plain, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		monitoring.ArtifactCache.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("decompress artifact: %w", err)
	}
	parts := bytes.SplitN(plain, []byte{0}, 3)
	if len(parts) != 3 {
		monitoring.ArtifactCache.WithLabelValues("error").Inc()
		return nil, false, errors.New("corrupt cached artifact")
	}
	monitoring.ArtifactCache.WithLabelValues("hit").Inc()
	return &report.Artifact{
		ContentType: string(parts[0]),
		Filename:    string(parts[1]),
		Data:        parts[2],
	}, true, nil
}

// Put 格式: contentType \0 filename \0 data
func (c *ArtifactCache) Put(ctx context.Context, key string, art *report.Artifact) error {
	var buf bytes.Buffer
	buf.Grow(len(art.ContentType) + len(art.Filename) + len(art.Data) + 2)
	buf.WriteString(art.ContentType)
	buf.WriteByte(0)
	buf.WriteString(art.Filename)
	buf.WriteByte(0)
	buf.Write(art.Data)

	compressed := c.enc.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len()/2))
	return c.rdb.Set(ctx, key, compressed, c.ttl).Err()
}
