package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/balkashynov/bitelog/internal/capture"
	"github.com/balkashynov/bitelog/internal/labeling"
	"github.com/balkashynov/bitelog/internal/metadata"
	"github.com/balkashynov/bitelog/internal/models"
)

// Folder is one session directory on disk.
type Folder struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Category  models.Category
	Meta      metadata.Entry
}

// VideoPath returns the video file inside the folder.
func (f Folder) VideoPath(ext string) string {
	return filepath.Join(f.Path, f.Name+ext)
}

// LogPath returns the motion log inside the folder.
func (f Folder) LogPath(ext string) string {
	return capture.LogPathFor(f.VideoPath(ext))
}

// ListSessions returns session folders newest first. Entries whose names
// start with a dot are skipped.
func (c *Controller) ListSessions() ([]Folder, error) {
	return listFolders(c.opts.Dir, c.meta)
}

func listFolders(dir string, meta *metadata.Store) ([]Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var folders []Folder
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.IsDir() {
			continue
		}

		f := Folder{Name: name, Path: filepath.Join(dir, name)}
		if id, err := models.ParseSessionName(name); err == nil {
			f.CreatedAt = id.CreatedAt
			f.Category = id.Category
		} else if info, err := entry.Info(); err == nil {
			f.CreatedAt = info.ModTime()
		}
		if meta != nil {
			f.Meta, _ = meta.Get(name)
		}
		folders = append(folders, f)
	}

	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].CreatedAt.After(folders[j].CreatedAt)
	})
	return folders, nil
}

// Lookup returns the folder with the given name.
func (c *Controller) Lookup(name string) (Folder, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return Folder{}, fmt.Errorf("%w: %q", ErrSessionNotFound, name)
	}
	path := filepath.Join(c.opts.Dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Folder{}, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}

	f := Folder{Name: name, Path: path, CreatedAt: info.ModTime()}
	if id, err := models.ParseSessionName(name); err == nil {
		f.CreatedAt = id.CreatedAt
		f.Category = id.Category
	}
	f.Meta, _ = c.meta.Get(name)
	return f, nil
}

// DeleteSession removes a session folder and its metadata. Failure to remove
// the files is logged and does not keep the metadata entry alive.
func (c *Controller) DeleteSession(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, name)
	}

	if err := os.RemoveAll(filepath.Join(c.opts.Dir, name)); err != nil {
		c.logger.Warn("remove session folder failed", "session", name, "err", err)
		c.alert("could not remove session files", err)
	}

	if d, ok := c.opts.Markers.(interface{ DeleteMarkers(string) error }); ok {
		if err := d.DeleteMarkers(name); err != nil {
			c.logger.Warn("delete markers failed", "session", name, "err", err)
		}
	}

	return c.meta.Delete(name)
}

// StaleMetadata returns metadata entries whose session folder is gone.
func (c *Controller) StaleMetadata() ([]string, error) {
	folders, err := c.ListSessions()
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(folders))
	for _, f := range folders {
		present[f.Name] = true
	}
	var stale []string
	for _, name := range c.meta.Folders() {
		if !present[name] {
			stale = append(stale, name)
		}
	}
	return stale, nil
}

// MarkShared flags the given sessions as shared.
func (c *Controller) MarkShared(names ...string) error {
	return c.meta.MarkShared(names...)
}

// SetLabelled records whether a session's labels are complete.
func (c *Controller) SetLabelled(name string, labelled bool) error {
	return c.meta.SetLabelled(labelled, name)
}

// OpenLabeling returns a labeling engine bound to the session's motion log.
// A session without its video file cannot be labeled at all, and OpenLabeling
// panics in that case.
func (c *Controller) OpenLabeling(name string) (*labeling.Engine, error) {
	f, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}

	video := f.VideoPath(c.opts.VideoExt)
	if _, err := os.Stat(video); err != nil {
		panic(fmt.Sprintf("session %s has no video file: %v", name, err))
	}

	opts := labeling.Options{
		Store:  c.opts.Markers,
		Logger: c.logger,
		OnError: func(err error) {
			c.alert("label update failed", err)
		},
	}
	logPath := f.LogPath(c.opts.VideoExt)
	if _, err := os.Stat(logPath); err == nil {
		opts.LogPath = logPath
		span, err := labeling.Span(logPath)
		if err != nil {
			c.logger.Warn("read log duration failed", "session", name, "err", err)
		}
		opts.Duration = span
	}

	return labeling.NewEngine(name, opts)
}
