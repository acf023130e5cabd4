package filecache

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/enrollment"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Cache stores the marks of one profile as a JSON array in a file under dir.
type Cache struct {
	mu   sync.Mutex
	path string
}

var _ enrollment.DurableCache = (*Cache)(nil) // interface compliance check

func New(dir, profileKey string) *Cache {
	key := unsafeChars.ReplaceAllString(profileKey, "_")
	if key == "" {
		key = "default"
	}
	return &Cache{path: filepath.Join(dir, "request-marks."+key+".json")}
}

func (c *Cache) Path() string { return c.path }

// Load reads the stored marks. A missing file is an empty set.
func (c *Cache) Load() (enrollment.IDSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return enrollment.NewIDSet(), nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading request marks")
	}
	return enrollment.UnmarshalIDs(data)
}

// Get is Load with unreadable or corrupt data read as an empty set.
func (c *Cache) Get() enrollment.IDSet {
	ids, err := c.Load()
	if err != nil {
		return enrollment.NewIDSet()
	}
	return ids
}

// Set replaces the file atomically so a crash never leaves a half-written array.
func (c *Cache) Set(ids enrollment.IDSet) error {
	data, err := enrollment.MarshalIDs(ids)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "creating cache dir")
	}
	tmp, err := os.CreateTemp(dir, ".request-marks-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing request marks")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing request marks")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing request marks")
	}
	if err = os.Rename(tmp.Name(), c.path); err != nil {
		return errors.Wrap(err, "replacing request marks")
	}
	return nil
}
