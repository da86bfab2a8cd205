package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	RendererHTML   = "html"
	RendererRemote = "remote"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)
