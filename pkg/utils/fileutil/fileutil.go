package fileutil

// Releaser releases a held file lock.
type Releaser interface {
	Release() error
}
