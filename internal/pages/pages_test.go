package pages

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/readalong/internal/apperrors"
)

func writePage(t *testing.T, root string, bookID, number int, text string) string {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(bookID))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, strconv.Itoa(number)+".txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestSource_Placeholder(t *testing.T) {
	s := NewSource("")
	p, err := s.Page(1, 12, 100)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Number)
	assert.Equal(t, 100, p.TotalPages)
	assert.Contains(t, p.Text, "Page 12")
	assert.Contains(t, p.Text, "Chapter 2 - Section 2")
}

func TestSource_Range(t *testing.T) {
	s := NewSource("")
	for _, n := range []int{0, -1, 11} {
		_, err := s.Page(1, n, 10)
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("page %d: got %v want validation error", n, err)
		}
	}
}

func TestSource_ReadsAndCachesFiles(t *testing.T) {
	root := t.TempDir()
	path := writePage(t, root, 3, 1, "It was a bright cold day in April.")
	s := NewSource(root)

	p, err := s.Page(3, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "It was a bright cold day in April.", p.Text)
	assert.Equal(t, 1, s.cached())

	// Cached copy survives the file changing until invalidated.
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))
	p, _ = s.Page(3, 1, 5)
	assert.Equal(t, "It was a bright cold day in April.", p.Text)

	s.Invalidate(path)
	p, _ = s.Page(3, 1, 5)
	assert.Equal(t, "changed", p.Text)

	// Missing files fall back to the placeholder.
	p, err = s.Page(3, 2, 5)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Page 2")
}

func TestSource_InvalidateDirectory(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, 1, 1, "a")
	writePage(t, root, 1, 2, "b")
	writePage(t, root, 2, 1, "c")
	s := NewSource(root)
	for _, k := range [][2]int{{1, 1}, {1, 2}, {2, 1}} {
		_, err := s.Page(int64(k[0]), k[1], 5)
		require.NoError(t, err)
	}
	require.Equal(t, 3, s.cached())

	s.Invalidate(filepath.Join(root, "1"))
	assert.Equal(t, 1, s.cached())
}

func TestSource_WatchInvalidatesOnWrite(t *testing.T) {
	root := t.TempDir()
	path := writePage(t, root, 7, 1, "first")
	s := NewSource(root)
	require.NoError(t, s.Watch())
	defer s.Close()

	p, err := s.Page(7, 1, 3)
	require.NoError(t, err)
	require.Equal(t, "first", p.Text)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	assert.Eventually(t, func() bool {
		p, err := s.Page(7, 1, 3)
		return err == nil && p.Text == "second"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSource_WatchWithoutRoot(t *testing.T) {
	s := NewSource("")
	assert.NoError(t, s.Watch())
	assert.NoError(t, s.Close())

	missing := NewSource(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, missing.Watch())
}
