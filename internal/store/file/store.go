// Package file persists projects as JSON documents: a single data file holding every
// project, a single project file, or a workspace directory with one folder per project.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/repository"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidDocument indicates a document without a known _type.
	ErrInvalidDocument = errors.New("invalid document: _type must be timesheet_data or timesheet_project")
	// ErrUnsupportedVersion indicates a data file with a version other than 2.
	ErrUnsupportedVersion = errors.New("unsupported document version")
)

// Layout identifies how projects are laid out on disk.
type Layout string

const (
	LayoutData      Layout = "data"
	LayoutProject   Layout = "project"
	LayoutWorkspace Layout = "workspace"
)

const (
	projectFileName = "project.json"
	backupSuffix    = ".bak"
)

// Store implements project.Repository on the filesystem. Every call reads the
// documents from disk, so callers always get a private copy.
type Store struct {
	path   string
	layout Layout
	clock  clock.Clock
	logger *slog.Logger
	mu     sync.Mutex
}

var _ project.Repository = (*Store)(nil)

// Open inspects path and returns a store for its layout. A directory is a workspace; a
// missing file becomes a new data file on first save.
func Open(path string, clk clock.Clock, logger *slog.Logger) (*Store, error) {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, clock: clk, logger: logger}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.layout = LayoutData
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", path, err)
	case info.IsDir():
		s.layout = LayoutWorkspace
	default:
		h, err := readHeader(path)
		if err != nil {
			return nil, err
		}
		switch h.Type {
		case typeData:
			if h.Version != versionData {
				return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
			}
			s.layout = LayoutData
		case typeProject:
			s.layout = LayoutProject
		default:
			return nil, ErrInvalidDocument
		}
	}
	logger.Info("file store opened", "path", path, "layout", string(s.layout))
	return s, nil
}

// Layout returns the detected layout.
func (s *Store) Layout() Layout { return s.layout }

func readHeader(path string) (header, error) {
	var h header
	b, err := os.ReadFile(path)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(b, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return h, nil
}

// entry is a loaded project with the file it came from.
type entry struct {
	doc    projectJSON
	file   string
	folder string
}

func (s *Store) loadAll(ctx context.Context) ([]entry, error) {
	switch s.layout {
	case LayoutWorkspace:
		return s.loadWorkspace(ctx)
	case LayoutProject:
		doc, err := readProject(s.path)
		if err != nil {
			return nil, err
		}
		return []entry{{doc: doc, file: s.path, folder: filepath.Base(filepath.Dir(s.path))}}, nil
	default:
		data, err := s.readData()
		if err != nil {
			return nil, err
		}
		out := make([]entry, len(data.Projects))
		for i, p := range data.Projects {
			out[i] = entry{doc: p, file: s.path}
		}
		return out, nil
	}
}

func (s *Store) readData() (dataDocument, error) {
	doc := dataDocument{Type: typeData, Version: versionData}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Type != typeData {
		return doc, ErrInvalidDocument
	}
	if doc.Version != versionData {
		return doc, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}

func readProject(path string) (projectJSON, error) {
	var doc projectJSON
	b, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
	}
	if doc.Type != typeProject {
		return doc, fmt.Errorf("%w: %s", ErrInvalidDocument, path)
	}
	return doc, nil
}

// loadWorkspace reads every non-hidden folder holding a project file. Unreadable
// project files are logged and skipped.
func (s *Store) loadWorkspace(ctx context.Context) ([]entry, error) {
	dirs, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	var (
		mu  sync.Mutex
		out []entry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		folder := d.Name()
		file := filepath.Join(s.path, folder, projectFileName)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := readProject(file)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				s.logger.WarnContext(ctx, "skipping project file", "path", file, "error", err)
				return nil
			}
			mu.Lock()
			out = append(out, entry{doc: doc, file: file, folder: folder})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].doc.Name) < strings.ToLower(out[j].doc.Name)
	})
	return out, nil
}

func find(entries []entry, id string) (entry, bool) {
	for _, e := range entries {
		if e.doc.ID == id {
			return e, true
		}
	}
	return entry{}, false
}

// List returns every project.
func (s *Store) List(ctx context.Context) ([]*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*project.Project, len(entries))
	for i, e := range entries {
		out[i] = e.doc.toDomain()
	}
	return out, nil
}

// Get returns the project with id.
func (s *Store) Get(ctx context.Context, id string) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := find(entries, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e.doc.toDomain(), nil
}

// Save writes the project, copying the previous file to a .bak sibling first.
func (s *Store) Save(ctx context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.layout {
	case LayoutWorkspace:
		return s.saveWorkspace(ctx, p)
	case LayoutProject:
		doc, err := readProject(s.path)
		if err != nil {
			return err
		}
		if doc.ID != p.ID {
			return fmt.Errorf("%w: project file %s holds project %s", repository.ErrInvalidInput, s.path, doc.ID)
		}
		folder := doc.FolderName
		if folder == "" {
			folder = filepath.Base(filepath.Dir(s.path))
		}
		return s.writeProject(s.path, fromDomain(p, folder))
	default:
		data, err := s.readData()
		if err != nil {
			return err
		}
		replaced := false
		for i := range data.Projects {
			if data.Projects[i].ID == p.ID {
				data.Projects[i] = fromDomain(p, data.Projects[i].FolderName)
				replaced = true
				break
			}
		}
		if !replaced {
			data.Projects = append(data.Projects, fromDomain(p, ""))
		}
		return writeJSON(s.path, data)
	}
}

func (s *Store) saveWorkspace(ctx context.Context, p *project.Project) error {
	entries, err := s.loadWorkspace(ctx)
	if err != nil {
		return err
	}
	if e, ok := find(entries, p.ID); ok {
		return s.writeProject(e.file, fromDomain(p, e.folder))
	}

	folder := uniqueFolder(s.path, SanitizeFolderName(p.Name))
	if err := os.MkdirAll(filepath.Join(s.path, folder), 0o755); err != nil {
		return fmt.Errorf("create project folder: %w", err)
	}
	return s.writeProject(filepath.Join(s.path, folder, projectFileName), fromDomain(p, folder))
}

func (s *Store) writeProject(path string, doc projectJSON) error {
	doc.Type = typeProject
	doc.Version = versionProject
	doc.LastSaved = formatTime(s.clock.Now())
	return writeJSON(path, doc)
}

// Delete removes a project. In a workspace the project file is moved to its .bak
// sibling so the folder is no longer listed.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.layout {
	case LayoutWorkspace:
		entries, err := s.loadWorkspace(ctx)
		if err != nil {
			return err
		}
		e, ok := find(entries, id)
		if !ok {
			return repository.ErrNotFound
		}
		return os.Rename(e.file, e.file+backupSuffix)
	case LayoutProject:
		return fmt.Errorf("%w: cannot delete the only project of %s", repository.ErrInvalidInput, s.path)
	default:
		data, err := s.readData()
		if err != nil {
			return err
		}
		kept := data.Projects[:0]
		found := false
		for _, p := range data.Projects {
			if p.ID == id {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return repository.ErrNotFound
		}
		data.Projects = kept
		return writeJSON(s.path, data)
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := backup(path); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// backup copies path to path.bak when path exists.
func backup(path string) error {
	src, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	defer src.Close()

	dst, err := os.Create(path + backupSuffix)
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("backup %s: %w", path, err)
	}
	return dst.Close()
}

var unsafeFolder = regexp.MustCompile(`[^a-zA-Z0-9 _\-]`)

// SanitizeFolderName derives a folder name from a project name.
func SanitizeFolderName(name string) string {
	n := strings.TrimSpace(unsafeFolder.ReplaceAllString(name, "_"))
	n = strings.Join(strings.Fields(n), "_")
	if n == "" || strings.HasPrefix(n, ".") {
		n = "project"
	}
	return n
}

func uniqueFolder(root, base string) string {
	name := base
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(root, name)); errors.Is(err, fs.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}
