package repository

import (
	"bytes"
	"context"
	"embed"
	"io"
	"os"
)

//go:embed data/teams.json data/events.json
var embedded embed.FS

// Source opens one dataset document.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type fileSource struct{ path string }

// FileSource reads a dataset from the filesystem on every load.
func FileSource(path string) Source { return fileSource{path: path} }

func (s fileSource) Name() string { return "file:" + s.path }

func (s fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.path)
}

type embedSource struct{ name string }

// EmbeddedTeams is the teams dataset compiled into the binary.
func EmbeddedTeams() Source { return embedSource{name: "data/teams.json"} }

// EmbeddedEvents is the events dataset compiled into the binary.
func EmbeddedEvents() Source { return embedSource{name: "data/events.json"} }

func (s embedSource) Name() string { return "embedded:" + s.name }

func (s embedSource) Open(_ context.Context) (io.ReadCloser, error) {
	return embedded.Open(s.name)
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource serves a fixed in-memory document.
func BytesSource(name string, data []byte) Source { return bytesSource{name: name, data: data} }

func (s bytesSource) Name() string { return "bytes:" + s.name }

func (s bytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
