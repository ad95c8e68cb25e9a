// Package blob archives benchmark result files on a local directory or an
// S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"
)

// Driver names a storage backend.
type Driver string

const (
	DriverFS Driver = "fs"
	DriverS3 Driver = "s3"
)

// ResultsPrefix is the key prefix of archived result files.
const ResultsPrefix = "results/"

var (
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("blob already exists")
	// ErrNotFound is returned by Get for unknown keys.
	ErrNotFound = errors.New("blob not found")
)

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a create-only object store.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, Info, error)
	List(ctx context.Context, prefix string) ([]Info, error)
}

// S3Options configures the s3 driver.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Options selects and configures a driver.
type Options struct {
	Driver Driver
	Root   string
	S3     S3Options
}

// Open returns the store named by opts.Driver. An empty driver means fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFS, "":
		return NewFilesystem(opts.Root)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	}
	return nil, fmt.Errorf("unknown blob driver %q", opts.Driver)
}

// Key returns the archive key of a result file.
func Key(fileName string) string {
	return ResultsPrefix + path.Base(fileName)
}
