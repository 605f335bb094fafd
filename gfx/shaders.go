package gfx

import (
	"context"
	"encoding/binary"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

const spirvMagic = 0x07230203

// shaderCache keeps SPIR-V bytecode by path so pipelines rebuilt on resize
// don't go back to disk.
type shaderCache struct {
	lock sync.Mutex
	code map[string][]uint32
}

func newShaderCache() *shaderCache {
	return &shaderCache{code: make(map[string][]uint32)}
}

func (s *shaderCache) Load(path string) ([]uint32, error) {
	s.lock.Lock()
	code, ok := s.code[path]
	s.lock.Unlock()
	if ok {
		return code, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}

	code, err = bytesToBytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}

	s.lock.Lock()
	s.code[path] = code
	s.lock.Unlock()
	return code, nil
}

// Preload reads every path concurrently and fails if any of them can't be
// loaded.
func (s *shaderCache) Preload(paths ...string) error {
	group, _ := errgroup.WithContext(context.Background())
	for _, path := range paths {
		path := path
		group.Go(func() error {
			_, err := s.Load(path)
			return err
		})
	}
	return group.Wait()
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("bytecode length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Newf("bad SPIR-V magic 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
