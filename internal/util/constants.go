package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const MimeImage = "image/"
