package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 凭证文件上传相关常量
const (
	MimeImage       = "image/"
	MimeAudio       = "audio/"
	MimeOgg         = "application/ogg"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	AllowedAudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac"}
)
