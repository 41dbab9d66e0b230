package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Sushanth-77/oj-project/internal/common/storage"
)

// Source fetches the raw corpus blobs for a problem, identified by its
// short code. ok is false when the problem simply has no corpus of that
// kind; err is reserved for transport failures.
type Source interface {
	Visible(ctx context.Context, problemCode string) (inputs, outputs string, ok bool, err error)
	Hidden(ctx context.Context, problemCode string) (inputs, outputs string, ok bool, err error)
}

const maxCorpusBytes int64 = 8 * 1024 * 1024

// ObjectSource reads corpus blobs from object storage with the layout
//
//	inputs/<code>.txt          outputs/<code>.txt
//	hidden_inputs/<code>.txt   hidden_outputs/<code>.txt
type ObjectSource struct {
	store  storage.ObjectStorage
	bucket string
}

// NewObjectSource creates an object-storage-backed corpus source.
func NewObjectSource(store storage.ObjectStorage, bucket string) (*ObjectSource, error) {
	if store == nil {
		return nil, fmt.Errorf("object storage is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	return &ObjectSource{store: store, bucket: bucket}, nil
}

func (s *ObjectSource) Visible(ctx context.Context, problemCode string) (string, string, bool, error) {
	return s.fetchPair(ctx,
		"inputs/"+problemCode+".txt",
		"outputs/"+problemCode+".txt",
	)
}

func (s *ObjectSource) Hidden(ctx context.Context, problemCode string) (string, string, bool, error) {
	return s.fetchPair(ctx,
		"hidden_inputs/"+problemCode+".txt",
		"hidden_outputs/"+problemCode+".txt",
	)
}

// fetchPair loads both blobs. Either key missing means the pair does not
// exist; a half-present pair is treated the same so a partial upload
// never judges against an empty expected output.
func (s *ObjectSource) fetchPair(ctx context.Context, inputKey, outputKey string) (string, string, bool, error) {
	inputs, found, err := s.fetch(ctx, inputKey)
	if err != nil {
		return "", "", false, err
	}
	if !found {
		return "", "", false, nil
	}
	outputs, found, err := s.fetch(ctx, outputKey)
	if err != nil {
		return "", "", false, err
	}
	if !found {
		return "", "", false, nil
	}
	return inputs, outputs, true, nil
}

func (s *ObjectSource) fetch(ctx context.Context, key string) (string, bool, error) {
	reader, err := s.store.GetObject(ctx, s.bucket, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch corpus object %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, maxCorpusBytes))
	if err != nil {
		return "", false, fmt.Errorf("read corpus object %s: %w", key, err)
	}
	return string(data), true, nil
}

// DirSource reads corpus blobs from a local directory using the same
// layout as ObjectSource. Useful for development and tests.
type DirSource struct {
	root string
}

// NewDirSource creates a directory-backed corpus source.
func NewDirSource(root string) (*DirSource, error) {
	if root == "" {
		return nil, fmt.Errorf("corpus dir cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve corpus dir: %w", err)
	}
	return &DirSource{root: abs}, nil
}

func (s *DirSource) Visible(_ context.Context, problemCode string) (string, string, bool, error) {
	return s.fetchPair(
		filepath.Join(s.root, "inputs", problemCode+".txt"),
		filepath.Join(s.root, "outputs", problemCode+".txt"),
	)
}

func (s *DirSource) Hidden(_ context.Context, problemCode string) (string, string, bool, error) {
	return s.fetchPair(
		filepath.Join(s.root, "hidden_inputs", problemCode+".txt"),
		filepath.Join(s.root, "hidden_outputs", problemCode+".txt"),
	)
}

func (s *DirSource) fetchPair(inputPath, outputPath string) (string, string, bool, error) {
	inputs, found, err := readOptional(inputPath)
	if err != nil {
		return "", "", false, err
	}
	if !found {
		return "", "", false, nil
	}
	outputs, found, err := readOptional(outputPath)
	if err != nil {
		return "", "", false, err
	}
	if !found {
		return "", "", false, nil
	}
	return inputs, outputs, true, nil
}

func readOptional(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read corpus file %s: %w", path, err)
	}
	return string(data), true, nil
}
