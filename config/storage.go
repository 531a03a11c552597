package config

import (
	"fmt"
	"os"
	"strconv"
)

// StorageType selects the archive backend for generated minutes.
type StorageType string

const (
	StorageTypeNone  StorageType = "none"
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

type StorageConfig struct {
	Type StorageType `yaml:"type"`
	// Prefix is prepended to every archived key.
	Prefix string      `yaml:"prefix"`
	Local  LocalConfig `yaml:"local"`
	S3     S3Config    `yaml:"s3"`
	Minio  MinioConfig `yaml:"minio"`
}

type LocalConfig struct {
	Dir string `yaml:"dir"`
}

type S3Config struct {
	BucketName string `yaml:"bucketName"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
}

type MinioConfig struct {
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	Endpoint   string `yaml:"endpoint"`
	UseSSL     bool   `yaml:"useSSL"`
	Region     string `yaml:"region"`
	BucketName string `yaml:"bucketName"`
}

func (s *StorageConfig) applyEnv() {
	if v := os.Getenv("MINUTES_STORAGE_TYPE"); v != "" {
		s.Type = StorageType(v)
	}
	setString(&s.Local.Dir, "MINUTES_ARCHIVE_DIR")

	setString(&s.S3.BucketName, "AWS_S3_BUCKET_NAME")
	setString(&s.S3.Region, "AWS_REGION")
	setString(&s.S3.Endpoint, "AWS_ENDPOINT")
	setString(&s.S3.AccessKey, "AWS_ACCESS_KEY")
	setString(&s.S3.SecretKey, "AWS_SECRET_KEY")

	setString(&s.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&s.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&s.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&s.Minio.Region, "MINIO_REGION")
	setString(&s.Minio.BucketName, "MINIO_BUCKET_NAME")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Minio.UseSSL = b
		}
	}
}

func (s *StorageConfig) Validate() error {
	switch s.Type {
	case "", StorageTypeNone:
		return nil
	case StorageTypeLocal:
		if s.Local.Dir == "" {
			return fmt.Errorf("storage.local.dir is required for local storage")
		}
	case StorageTypeS3:
		if s.S3.BucketName == "" || s.S3.Region == "" {
			return fmt.Errorf("storage.s3 requires bucketName and region")
		}
	case StorageTypeMinio:
		if s.Minio.BucketName == "" || s.Minio.Endpoint == "" {
			return fmt.Errorf("storage.minio requires bucketName and endpoint")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", s.Type)
	}
	return nil
}

// Enabled reports whether generated documents should be archived.
func (s StorageConfig) Enabled() bool {
	return s.Type != "" && s.Type != StorageTypeNone
}
