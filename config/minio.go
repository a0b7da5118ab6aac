package config

import "sync"

var (
	minioOnce   sync.Once
	minioConfig *MinioConfig
)

// MinioConfig holds the object store settings used to stage batch uploads
// between the API server and the worker.
type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

// GetMinioConfig loads the MinIO configuration from the environment.
func GetMinioConfig() *MinioConfig {
	minioOnce.Do(func() {
		minioConfig = &MinioConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName: getEnv("MINIO_BUCKET", "receipts"),
			UseSSL:     getEnv("MINIO_USE_SSL", "false") == "true",
		}
	})
	return minioConfig
}
