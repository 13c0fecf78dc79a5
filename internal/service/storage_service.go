package service

import (
	"context"
	"fmt"
	"io"
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/util"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider abstracts where uploaded resource files live.
type StorageProvider interface {
	Upload(file *multipart.FileHeader, objectPath string) (string, error)
	UploadFile(localPath, objectPath string) (string, error)
	Delete(objectPath string) error
	GetURL(objectPath string) string
}

type LocalStorageProvider struct {
	BasePath string
	BaseURL  string
}

func NewLocalStorageProvider(basePath, baseURL string) *LocalStorageProvider {
	return &LocalStorageProvider{BasePath: basePath, BaseURL: baseURL}
}

func (p *LocalStorageProvider) Upload(file *multipart.FileHeader, objectPath string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	fullPath := filepath.Join(p.BasePath, objectPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return p.GetURL(objectPath), nil
}

func (p *LocalStorageProvider) UploadFile(localPath, objectPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	fullPath := filepath.Join(p.BasePath, objectPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return p.GetURL(objectPath), nil
}

func (p *LocalStorageProvider) Delete(objectPath string) error {
	return os.Remove(filepath.Join(p.BasePath, objectPath))
}

func (p *LocalStorageProvider) GetURL(objectPath string) string {
	return strings.TrimRight(p.BaseURL, "/") + "/" + strings.TrimLeft(objectPath, "/")
}

type MinioStorageProvider struct {
	Client *minio.Client
	Bucket string
	UseSSL bool
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init failed: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStorageProvider{Client: client, Bucket: cfg.MinioBucket, UseSSL: cfg.MinioUseSSL}, nil
}

func (p *MinioStorageProvider) Upload(file *multipart.FileHeader, objectPath string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	_, err = p.Client.PutObject(context.Background(), p.Bucket, objectPath, src, file.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return p.GetURL(objectPath), nil
}

func (p *MinioStorageProvider) UploadFile(localPath, objectPath string) (string, error) {
	_, err := p.Client.FPutObject(context.Background(), p.Bucket, objectPath, localPath,
		minio.PutObjectOptions{})
	if err != nil {
		return "", err
	}
	return p.GetURL(objectPath), nil
}

func (p *MinioStorageProvider) Delete(objectPath string) error {
	return p.Client.RemoveObject(context.Background(), p.Bucket, objectPath, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(objectPath string) string {
	scheme := "http"
	if p.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.Client.EndpointURL().Host, p.Bucket, objectPath)
}

// StorageService selects the configured provider.
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	switch cfg.Storage.Type {
	case util.StorageMinio:
		provider, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			return nil, err
		}
		return &StorageService{Provider: provider}, nil
	case util.StorageLocal, "":
		return &StorageService{Provider: NewLocalStorageProvider(cfg.Storage.LocalPath, "/static")}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
