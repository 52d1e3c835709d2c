package partialexport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// Persister stores an export on the server side.
type Persister interface {
	Persist(ctx context.Context, req Request) error
}

// RemoteBackend triggers Keycloak's own server-side export.
type RemoteBackend interface {
	ServerExport(ctx context.Context, realm, resource, search, fileName string, condensed bool) error
}

// RemotePersister delegates to Keycloak, which writes the file on its disk.
type RemotePersister struct {
	Backend RemoteBackend
}

// Persist implements Persister.
func (p *RemotePersister) Persist(ctx context.Context, req Request) error {
	if err := p.Backend.ServerExport(ctx, req.Realm, req.Section.ResourceName, req.Search, req.FileName, req.Condensed); err != nil {
		return fmt.Errorf("server export of %s: %w", req.Section.Name, err)
	}
	return nil
}

// DirPersister fetches the export and writes it below Dir, one directory
// per realm. Existing files are never overwritten.
type DirPersister struct {
	Dir     string
	Backend LocalBackend
	Logger  *zap.Logger
}

// Persist implements Persister.
func (p *DirPersister) Persist(ctx context.Context, req Request) error {
	if err := model.ValidatePathSegment(req.Realm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRealm, err)
	}
	data, err := render(ctx, p.Backend, req)
	if err != nil {
		return err
	}

	dir := filepath.Join(p.Dir, req.Realm)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f, err := createUnique(dir, req.FileName)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", f.Name(), err)
	}

	if p.Logger != nil {
		p.Logger.Info("export written",
			zap.String("realm", req.Realm),
			zap.String("section", req.Section.Name),
			zap.String("path", f.Name()),
		)
	}
	return nil
}

// UniqueFileName returns <dir>/<name>.json when free, else the first free
// <dir>/<name>-N.json with N counting from 0.
func UniqueFileName(dir, name string) string {
	candidate := filepath.Join(dir, name+".json")
	for n := 0; exists(candidate); n++ {
		candidate = filepath.Join(dir, name+"-"+strconv.Itoa(n)+".json")
	}
	return candidate
}

// createUnique opens a fresh file, retrying when a concurrent writer wins
// the name between lookup and creation.
func createUnique(dir, name string) (*os.File, error) {
	for {
		path := UniqueFileName(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		return f, nil
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
