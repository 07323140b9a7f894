package services

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"

	"github.com/pixelgrove/photobooth/pkg/internal/models"
)

const metadataSuffix = ".meta.json"

// SetupStore builds the gallery object store from the configured destination
// and installs it as the default.
func SetupStore() error {
	store, err := NewObjectStore()
	if err != nil {
		return err
	}
	DefaultStore = store
	return nil
}

// NewObjectStore reads destinations.gallery from the settings and returns the
// matching backend.
func NewObjectStore() (ObjectStore, error) {
	destMap := viper.GetStringMap("destinations.gallery")

	var dest models.BaseDestination
	rawDest, _ := jsoniter.Marshal(destMap)
	_ = jsoniter.Unmarshal(rawDest, &dest)

	switch dest.Type {
	case models.DestinationTypeLocal:
		var destConfigured models.LocalDestination
		_ = jsoniter.Unmarshal(rawDest, &destConfigured)
		return &localStore{config: destConfigured}, nil
	case models.DestinationTypeS3:
		var destConfigured models.S3Destination
		_ = jsoniter.Unmarshal(rawDest, &destConfigured)

		client, err := minio.New(destConfigured.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(destConfigured.SecretID, destConfigured.SecretKey, ""),
			Secure: destConfigured.EnableSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to configure s3 client: %v", err)
		}
		return &s3Store{client: client, config: destConfigured}, nil
	default:
		return nil, fmt.Errorf("invalid destination: unsupported protocol %s", dest.Type)
	}
}

// s3Store keeps binaries in an S3-compatible bucket. The tag list and the
// queryable context travel as object user metadata so a single listing can
// rebuild the session index client-side.
type s3Store struct {
	client *minio.Client
	config models.S3Destination
}

func (s *s3Store) Put(ctx context.Context, key string, data []byte, contentType string, tags []string, metadata map[string]string) (StoredObject, error) {
	userMeta := map[string]string{"tags": strings.Join(tags, ",")}
	for k, v := range metadata {
		userMeta[k] = v
	}

	objectName := filepath.Join(s.config.Path, key)
	_, err := s.client.PutObject(ctx, s.config.Bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:          contentType,
		UserMetadata:         userMeta,
		SendContentMd5:       false,
		DisableContentSha256: true,
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("unable to upload file to s3: %v", err)
	}

	return StoredObject{
		Key:         key,
		URL:         s.objectURL(objectName),
		Size:        int64(len(data)),
		ContentType: contentType,
		Tags:        tags,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *s3Store) List(ctx context.Context, prefix string, limit int) ([]StoredObject, error) {
	listPrefix := filepath.Join(s.config.Path, prefix)

	var out []StoredObject
	for info := range s.client.ListObjects(ctx, s.config.Bucket, minio.ListObjectsOptions{
		Prefix:       listPrefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("unable to list objects from s3: %v", info.Err)
		}

		meta := normalizeUserMetadata(info.UserMetadata)
		if len(meta) == 0 {
			// Some providers omit metadata from listings; stat fills it in.
			stat, err := s.client.StatObject(ctx, s.config.Bucket, info.Key, minio.StatObjectOptions{})
			if err == nil {
				meta = normalizeUserMetadata(stat.UserMetadata)
			}
		}

		tags := strings.Split(meta["tags"], ",")
		delete(meta, "tags")

		key := strings.TrimPrefix(strings.TrimPrefix(info.Key, s.config.Path), "/")
		out = append(out, StoredObject{
			Key:         key,
			URL:         s.objectURL(info.Key),
			Size:        info.Size,
			ContentType: info.ContentType,
			Tags:        tags,
			Metadata:    meta,
			CreatedAt:   info.LastModified,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *s3Store) Remove(ctx context.Context, keys []string) error {
	for _, key := range keys {
		objectName := filepath.Join(s.config.Path, key)
		if err := s.client.RemoveObject(ctx, s.config.Bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("unable to remove object from s3: %v", err)
		}
	}
	return nil
}

func (s *s3Store) objectURL(objectName string) string {
	if len(s.config.AccessBaseURL) > 0 {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.AccessBaseURL, "/"), objectName)
	}
	scheme := "http"
	if s.config.EnableSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.config.Endpoint, s.config.Bucket, objectName)
}

// normalizeUserMetadata lowercases keys and strips the x-amz-meta- prefix
// that bucket listings attach.
func normalizeUserMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.ToLower(k)
		k = strings.TrimPrefix(k, "x-amz-meta-")
		if len(v) > 0 {
			out[k] = v
		}
	}
	return out
}

// localStore writes binaries under a directory with a JSON sidecar per object
// carrying the index entry. Meant for development and single-machine kiosks.
type localStore struct {
	config models.LocalDestination
}

func (s *localStore) Put(_ context.Context, key string, data []byte, contentType string, tags []string, metadata map[string]string) (StoredObject, error) {
	dst := filepath.Join(s.config.Path, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return StoredObject{}, fmt.Errorf("unable to prepare destination directory: %v", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return StoredObject{}, fmt.Errorf("unable to write file to local destination: %v", err)
	}

	obj := StoredObject{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.AccessBaseURL, "/"), key),
		Size:        int64(len(data)),
		ContentType: contentType,
		Tags:        tags,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}

	raw, _ := jsoniter.Marshal(obj)
	if err := os.WriteFile(dst+metadataSuffix, raw, 0o644); err != nil {
		return StoredObject{}, fmt.Errorf("unable to write sidecar metadata: %v", err)
	}
	return obj, nil
}

func (s *localStore) List(_ context.Context, prefix string, limit int) ([]StoredObject, error) {
	root := filepath.Join(s.config.Path, prefix)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var out []StoredObject
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, metadataSuffix) {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var obj StoredObject
		if err := jsoniter.Unmarshal(raw, &obj); err != nil {
			return err
		}
		out = append(out, obj)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to scan local destination: %v", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *localStore) Remove(_ context.Context, keys []string) error {
	for _, key := range keys {
		dst := filepath.Join(s.config.Path, key)
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to remove file from local destination: %v", err)
		}
		_ = os.Remove(dst + metadataSuffix)
	}
	return nil
}
