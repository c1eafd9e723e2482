package config

import "time"

// MediaConfig describes the S3-compatible bucket that stores avatars and
// cover images, plus the per-slot cleanup policy applied when an image is
// replaced.
type MediaConfig struct {
	Endpoint       string // e.g. http://127.0.0.1:9000 for MinIO; empty means AWS
	PublicBaseURL  string // base for the URLs handed to clients; defaults to Endpoint/Bucket
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Prefix         string
	UsePathStyle   bool
	MaxUploadBytes int64
	UploadTimeout  time.Duration
	CleanupAvatar  bool
	CleanupCover   bool
}

func LoadMediaConfig() MediaConfig {
	return MediaConfig{
		Endpoint:       envStr("MEDIA_S3_ENDPOINT", ""),
		PublicBaseURL:  envStr("MEDIA_PUBLIC_BASE_URL", ""),
		Region:         envStr("MEDIA_S3_REGION", "us-east-1"),
		Bucket:         envStr("MEDIA_S3_BUCKET", "vidtube-media"),
		AccessKey:      envStr("MEDIA_S3_ACCESS_KEY", ""),
		SecretKey:      envStr("MEDIA_S3_SECRET_KEY", ""),
		Prefix:         envStr("MEDIA_S3_PREFIX", "images"),
		UsePathStyle:   envBool("MEDIA_S3_PATH_STYLE", true),
		MaxUploadBytes: envInt64("MEDIA_MAX_UPLOAD_BYTES", 5<<20),
		UploadTimeout:  envDur("MEDIA_UPLOAD_TIMEOUT", 30*time.Second),
		CleanupAvatar:  envBool("MEDIA_CLEANUP_AVATAR", true),
		CleanupCover:   envBool("MEDIA_CLEANUP_COVER", true),
	}
}
