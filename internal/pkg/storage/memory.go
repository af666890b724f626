package storage

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // etag only
	"encoding/hex"
	"io"
	"maps"
	"net/url"
	"sync"
	"time"
)

// MemoryOptions configures the in-process driver.
type MemoryOptions struct {
	// BaseURL prefixes the links returned by PresignGet.
	BaseURL string
}

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// Memory keeps objects in process memory. It backs local runs and tests.
type Memory struct {
	baseURL string
	now     func() time.Time

	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemory constructs an empty in-memory store.
func NewMemory(opts MemoryOptions) *Memory {
	base := opts.BaseURL
	if base == "" {
		base = "memory://"
	}
	return &Memory{
		baseURL: base,
		now:     time.Now,
		objects: map[string]memoryObject{},
	}
}

func (m *Memory) Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}

	sum := md5.Sum(data) //nolint:gosec // etag only
	info := ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		UpdatedAt:   m.now(),
	}

	m.mu.Lock()
	m.objects[bucket+"/"+key] = memoryObject{data: data, info: info}
	m.mu.Unlock()

	return info, nil
}

func (m *Memory) Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	m.mu.RLock()
	obj, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (m *Memory) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, bucket+"/"+key)
	m.mu.Unlock()
	return nil
}

// PresignGet returns a link carrying the expiry as a query parameter. Nothing serves it.
func (m *Memory) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	_, ok := m.objects[bucket+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}

	q := url.Values{}
	q.Set("expires", m.now().Add(expiry).UTC().Format(time.RFC3339))
	return m.baseURL + url.PathEscape(bucket) + "/" + key + "?" + q.Encode(), nil
}

func (m *Memory) Close() error { return nil }
