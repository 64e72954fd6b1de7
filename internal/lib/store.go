package lib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"hdlc/internal/vcode"
)

// SaveUnit persists a vcode unit into the library directory. The write
// is atomic: a temp file is renamed over the destination.
func (l *Library) SaveUnit(u *vcode.Unit) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(l.Dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := vcode.WriteUnit(f, u); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(l.Dir, UnitFileName(u.Name)))
}

// ReadUnit loads one persisted unit into the registry. Idempotent: a
// unit already registered is returned as-is without touching disk.
func (l *Library) ReadUnit(name string, reg *vcode.Registry) (*vcode.Unit, error) {
	if u := reg.Find(name); u != nil {
		return u, nil
	}
	f, err := l.OpenFbuf(UnitFileName(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u, err := vcode.ReadUnit(f, reg)
	if err != nil {
		return nil, fmt.Errorf("library %s: unit %s: %w", l.Name, name, err)
	}
	reg.Register(u)
	return u, nil
}

// Preload reads every persisted unit of the library into the registry.
// File reads and decodes run concurrently; registration is serialised.
// Units already registered keep their in-memory version.
func (l *Library) Preload(reg *vcode.Registry) error {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	loaded := make([]*vcode.Unit, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".vc") {
			continue
		}
		name := e.Name()
		g.Go(func() error {
			f, err := os.Open(filepath.Join(l.Dir, name))
			if err != nil {
				return err
			}
			defer f.Close()
			u, err := vcode.ReadUnit(f, nil)
			if err != nil {
				return fmt.Errorf("library %s: %s: %w", l.Name, name, err)
			}
			mu.Lock()
			loaded = append(loaded, u)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, u := range loaded {
		if reg.Find(u.Name) == nil {
			reg.Register(u)
		}
	}
	// Re-link context chains now that every unit is present.
	for _, u := range loaded {
		reg.Relink(u)
	}
	return nil
}
