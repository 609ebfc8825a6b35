// Package pages supplies the text shown for each page of a book. Books
// without a text directory get generated placeholder pages.
package pages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/vrsandeep/readalong/internal/apperrors"
)

// Page is one page of a book.
type Page struct {
	BookID     int64  `json:"book_id"`
	Number     int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Text       string `json:"text"`
}

// Source reads pages from <root>/<bookID>/<page>.txt and caches them until
// the file changes on disk.
type Source struct {
	root    string
	mu      sync.RWMutex
	cache   map[string]string
	watcher *Watcher
}

// NewSource returns a Source rooted at root. An empty root serves only
// placeholder pages.
func NewSource(root string) *Source {
	return &Source{root: root, cache: make(map[string]string)}
}

// Root is the directory pages are read from.
func (s *Source) Root() string {
	return s.root
}

// Page returns page number of a book with totalPages pages.
func (s *Source) Page(bookID int64, number, totalPages int) (*Page, error) {
	if number < 1 || number > totalPages {
		return nil, apperrors.Validation("Page must be between 1 and %d", totalPages)
	}
	p := &Page{BookID: bookID, Number: number, TotalPages: totalPages}
	if s.root == "" {
		p.Text = Placeholder(number)
		return p, nil
	}

	path := s.pathFor(bookID, number)
	s.mu.RLock()
	text, ok := s.cache[path]
	s.mu.RUnlock()
	if ok {
		p.Text = text
		return p, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		p.Text = Placeholder(number)
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("reading page %d of book %d: %w", number, bookID, err)
	}

	text = string(data)
	s.mu.Lock()
	s.cache[path] = text
	s.mu.Unlock()
	p.Text = text
	return p, nil
}

func (s *Source) pathFor(bookID int64, number int) string {
	return filepath.Join(s.root, strconv.FormatInt(bookID, 10), strconv.Itoa(number)+".txt")
}

// Invalidate drops a cached file, or everything under a directory.
func (s *Source) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[path]; ok {
		delete(s.cache, path)
		return
	}
	prefix := strings.TrimRight(path, string(filepath.Separator)) + string(filepath.Separator)
	for p := range s.cache {
		if strings.HasPrefix(p, prefix) {
			delete(s.cache, p)
		}
	}
}

func (s *Source) cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Watch starts invalidating the cache on file changes under the root. It
// is a no-op when there is no root directory.
func (s *Source) Watch() error {
	if s.root == "" {
		return nil
	}
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("page directory: %w", err)
	}
	w := NewWatcher(s.root, s.Invalidate)
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// Close stops the watcher, if any.
func (s *Source) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Stop()
}

// Placeholder is the generated text for a page with no file.
func Placeholder(number int) string {
	chapter := (number-1)/10 + 1
	section := (number-1)%10 + 1
	return fmt.Sprintf(`Page %d

This is a sample page from the book. Real page text is served when the book
has a text file for this page.

Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor
incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud
exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat.

Chapter %d - Section %d
`, number, chapter, section)
}
