package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/osako110/Recommend/core"
)

// MemoryArtifactStore 是内存实现的 core.ArtifactStore，用于测试。
type MemoryArtifactStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{objects: make(map[string][]byte)}
}

func (s *MemoryArtifactStore) Put(ctx context.Context, localPath, uri string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}
	s.PutBytes(uri, data)
	return nil
}

// PutBytes 直接写入内容
func (s *MemoryArtifactStore) PutBytes(uri string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[uri] = data
}

func (s *MemoryArtifactStore) Get(ctx context.Context, uri string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[uri]
	if !ok {
		return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeNotFound, "artifact: "+uri, core.ErrArtifactNotFound)
	}
	return data, nil
}

// Keys 返回全部已写入的 URI
func (s *MemoryArtifactStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
