package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/osako110/Recommend/core"
)

// FileArtifactStore 把产物写到本地文件系统（或挂载的共享盘）。
// 写入先落临时文件再 rename，读者不会看到半写的产物。
type FileArtifactStore struct{}

func NewFileArtifactStore() *FileArtifactStore { return &FileArtifactStore{} }

func (s *FileArtifactStore) Put(ctx context.Context, localPath, uri string) error {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return err
	}
	dst := u.Key
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("publish artifact %s: %w", dst, err)
	}
	return nil
}

func (s *FileArtifactStore) Get(ctx context.Context, uri string) ([]byte, error) {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(u.Key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeNotFound, "artifact: "+uri, core.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Key, err)
	}
	return data, nil
}
