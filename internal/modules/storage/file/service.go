package file

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/ecosphere/core/internal/config"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

// Storage backends for stored objects.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StoredObject describes where an uploaded object ended up.
type StoredObject struct {
	URL     string `json:"url"`
	Key     string `json:"key"`
	Storage string `json:"storage"`
}

// Service stores binary objects either on the configured S3 bucket or on the
// local static directory when S3 is disabled. Keys are namespaced paths like
// "news-images/<name>".
type Service struct {
	cfgSvc    *appconfigs.Service
	staticDir string
}

func NewService(cfgSvc *appconfigs.Service) *Service {
	return &Service{
		cfgSvc:    cfgSvc,
		staticDir: resolveStaticDir(),
	}
}

// StaticDir returns the local object root.
func (s *Service) StaticDir() string { return s.staticDir }

// Store writes payload under key and returns its public location.
func (s *Service) Store(ctx context.Context, key string, payload []byte, contentType string) (StoredObject, error) {
	key = cleanObjectKey(key)
	if key == "" {
		return StoredObject{}, fmt.Errorf("object key is required")
	}

	cfg := s.s3Options()
	if cfg != nil && cfg.Enable {
		return s.storeS3(ctx, *cfg, key, payload, contentType)
	}
	return s.storeLocal(key, payload)
}

// Remove deletes a stored object. Unknown keys are ignored.
func (s *Service) Remove(ctx context.Context, key, storage string) error {
	key = cleanObjectKey(key)
	if key == "" {
		return nil
	}

	if strings.EqualFold(storage, StorageS3) {
		cfg := s.s3Options()
		if cfg == nil {
			return nil
		}
		client, err := newS3Client(*cfg)
		if err != nil {
			return err
		}
		_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(key),
		})
		return err
	}

	path, ok := s.LocalPath(key)
	if !ok {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// LocalPath resolves key to a path under the static dir, rejecting traversal.
func (s *Service) LocalPath(key string) (string, bool) {
	key = cleanObjectKey(key)
	if key == "" {
		return "", false
	}
	for _, seg := range strings.Split(key, "/") {
		if !isSafeSegment(seg) {
			return "", false
		}
	}
	return filepath.Join(s.staticDir, filepath.FromSlash(key)), true
}

func (s *Service) storeLocal(key string, payload []byte) (StoredObject, error) {
	path, ok := s.LocalPath(key)
	if !ok {
		return StoredObject{}, fmt.Errorf("invalid object key %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return StoredObject{}, err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return StoredObject{}, err
	}
	return StoredObject{
		URL:     "/api/v2/objects/" + key,
		Key:     key,
		Storage: StorageLocal,
	}, nil
}

func (s *Service) storeS3(ctx context.Context, cfg appcfg.S3Options, key string, payload []byte, contentType string) (StoredObject, error) {
	client, err := newS3Client(cfg)
	if err != nil {
		return StoredObject{}, err
	}

	if tpl := strings.TrimSpace(cfg.Path); tpl != "" {
		key = cleanObjectKey(strings.TrimSuffix(tpl, "/") + "/" + key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return StoredObject{}, err
	}

	return StoredObject{
		URL:     publicS3URL(cfg, key),
		Key:     key,
		Storage: StorageS3,
	}, nil
}

func (s *Service) s3Options() *appcfg.S3Options {
	if s.cfgSvc == nil {
		return nil
	}
	cfg, err := s.cfgSvc.Get()
	if err != nil || cfg == nil {
		return nil
	}
	return &cfg.S3Options
}

func newS3Client(cfg appcfg.S3Options) (*s3.Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		),
		UsePathStyle: cfg.PathStyleAccess,
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts.BaseEndpoint = aws.String(ensureScheme(endpoint))
	}
	return s3.New(opts), nil
}

func publicS3URL(cfg appcfg.S3Options, key string) string {
	if domain := strings.TrimSpace(cfg.CustomDomain); domain != "" {
		return strings.TrimSuffix(ensureScheme(domain), "/") + "/" + key
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, regionOrDefault(cfg.Region), key)
	}

	endpoint = ensureScheme(endpoint)
	if cfg.PathStyleAccess {
		return strings.TrimSuffix(endpoint, "/") + "/" + cfg.Bucket + "/" + key
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(endpoint, "/") + "/" + key
	}
	u.Host = cfg.Bucket + "." + u.Host
	u.Path = "/" + key
	return u.String()
}

func regionOrDefault(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		return "us-east-1"
	}
	return region
}

func ensureScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

func cleanObjectKey(key string) string {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	key = strings.Trim(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}
