// Package coursecfg persists one JSON document per course on disk, keyed by
// the normalized course name.
package coursecfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type Store struct {
	dir    string
	logger core.Logger

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

var _ course.Repository = (*Store)(nil)

func NewStore(dir string, logger core.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating course store dir %s", dir)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// keyLock returns the per-course mutex, creating it on first use. All writes
// to a course file go through its lock: single writer, last writer wins is
// replaced by serialized read-modify-write.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = new(sync.Mutex)
		s.locks[key] = l
	}
	return l
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) read(key string) (course.Course, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrapf(err, "reading course %s", key)
	}
	var c course.Course
	if err = json.Unmarshal(b, &c); err != nil {
		return course.Course{}, errors.Wrapf(err, "parsing course %s", key)
	}
	return c, nil
}

func (s *Store) write(c course.Course) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding course %s", c.Key)
	}
	if err = os.WriteFile(s.path(c.Key), b, 0o644); err != nil {
		return errors.Wrapf(err, "writing course %s", c.Key)
	}
	return nil
}

func (s *Store) Save(c course.Course) error {
	if c.Key == "" {
		return errors.New("course key is empty")
	}
	lock := s.keyLock(c.Key)
	lock.Lock()
	defer lock.Unlock()
	return s.write(c)
}

func (s *Store) Get(key string) (course.Course, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return s.read(key)
}

// Update runs fn on the stored record and writes the result back, all under
// the record's lock, so a UI edit and a scheduled job can no longer drop each
// other's writes.
func (s *Store) Update(key string, fn func(*course.Course) error) error {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.read(key)
	if err != nil {
		return err
	}
	if err = fn(&c); err != nil {
		return err
	}
	return s.write(c)
}

// All loads every course in the store. A course file with bad JSON is logged
// and skipped; it never hides the healthy courses.
func (s *Store) All() ([]course.Course, error) {
	fps, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "listing course store")
	}

	courses := make([]course.Course, 0, len(fps))
	for _, fp := range fps {
		key := strings.TrimSuffix(filepath.Base(fp), ".json")
		c, err := s.Get(key)
		if err != nil {
			s.logger.Error(fmt.Sprintf("course store: skipping %s: %v", key, err), err)
			continue
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (s *Store) Delete(key string) error {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return course.ErrNotFound
		}
		return errors.Wrapf(err, "deleting course %s", key)
	}
	return nil
}
