package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/omny/pkg/utils"
)

// fileMagic starts every saved index file.
var fileMagic = [8]byte{'O', 'M', 'N', 'Y', 'V', 'E', 'C', '1'}

// ErrDimensionMismatch is returned when a vector or saved file has the wrong dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// MemoryIndex is a brute-force inner-product index kept in memory and
// persisted as a single binary file. The knowledge base is small enough that
// exact search is fast.
type MemoryIndex struct {
	mu         sync.RWMutex
	dimensions int
	ids        []string
	vectors    [][]float32
	slot       map[string]int
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &MemoryIndex{dimensions: dimensions, slot: make(map[string]int)}, nil
}

// Add inserts vectors; an existing ID has its vector replaced.
func (m *MemoryIndex) Add(_ context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := append([]float32(nil), vectors[i]...)
		if s, ok := m.slot[id]; ok {
			m.vectors[s] = vec
			continue
		}
		m.slot[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns up to k IDs ordered by descending score.
func (m *MemoryIndex) Search(_ context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	results := make([]*Result, len(m.ids))
	for i, vec := range m.vectors {
		results[i] = &Result{ID: m.ids[i], Score: utils.Dot(query, vec)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Remove deletes vectors by ID. Unknown IDs are ignored.
func (m *MemoryIndex) Remove(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		s, ok := m.slot[id]
		if !ok {
			continue
		}
		last := len(m.ids) - 1
		if s != last {
			m.ids[s], m.vectors[s] = m.ids[last], m.vectors[last]
			m.slot[m.ids[s]] = s
		}
		m.ids, m.vectors = m.ids[:last], m.vectors[:last]
		delete(m.slot, id)
	}
	return nil
}

// Save writes the index to path atomically. Layout, little endian: magic,
// dimension u32, count u32, then per entry id length u32, id bytes, vector.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".vectors-*")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := m.encode(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (m *MemoryIndex) encode(w io.Writer) error {
	header := []any{fileMagic, uint32(m.dimensions), uint32(len(m.ids))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	buf := make([]byte, m.dimensions*4)
	for i, id := range m.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id length: %w", err)
		}
		if _, err := io.WriteString(w, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		for j, f := range m.vectors[i] {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(f))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the contents with the file at path. A missing file leaves the
// index empty and is not an error.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [8]byte
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != fileMagic {
		return fmt.Errorf("%s is not a vector index file", path)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("%w: file has %d, index expects %d", ErrDimensionMismatch, dim, m.dimensions)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	ids := make([]string, 0, n)
	vectors := make([][]float32, 0, n)
	slot := make(map[string]int, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("read id length: %w", err)
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(r, id); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		vec := make([]float32, m.dimensions)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		slot[string(id)] = len(ids)
		ids = append(ids, string(id))
		vectors = append(vectors, vec)
	}

	m.mu.Lock()
	m.ids, m.vectors, m.slot = ids, vectors, slot
	m.mu.Unlock()
	return nil
}

// Size returns the number of stored vectors.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}
