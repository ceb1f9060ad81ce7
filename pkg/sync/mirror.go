package sync

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/mirror/pkg/errors"
)

// tempFilePattern names the staging files used by copyFile.
const tempFilePattern = ".mirror-*"

// ErrIncomplete is returned by Synchronize when errors were isolated to
// subtrees and the rest of the pass completed.
var ErrIncomplete = errors.New("pass finished with errors")

// Syncer makes replica directory trees match source directory trees.
type Syncer struct {
	// log receives one entry per mutating action, and one per error.
	log    logrus.FieldLogger
	policy ErrorPolicy
}

// NewSyncer returns a Syncer that writes its operation log to `opLog`.
func NewSyncer(opLog logrus.FieldLogger, policy ErrorPolicy) *Syncer {
	return &Syncer{log: opLog, policy: policy}
}

// Synchronize runs one pass that mirrors `source` onto `replica`.
// Errors are written to the operation log before being returned. A missing
// source directory is reported as an errors.DirectoryNotFound.
func (s *Syncer) Synchronize(source, replica string) (Stats, error) {
	p := &pass{log: s.log, policy: s.policy}
	if err := p.reconcile(DirectoryPair{Source: source, Replica: replica}); err != nil {
		p.fail(err)
		return p.stats, err
	}

	if p.stats.Errors > 0 {
		return p.stats, ErrIncomplete
	}
	return p.stats, nil
}

// pass holds the state of a single call to Synchronize.
type pass struct {
	log    logrus.FieldLogger
	policy ErrorPolicy
	stats  Stats
}

func (p *pass) record(a Action) {
	p.stats.Actions = append(p.stats.Actions, a)
	switch a.Type {
	case Copy:
		p.stats.FilesCopied++
	case Delete:
		p.stats.FilesDeleted++
	case DeleteDir:
		p.stats.DirsDeleted++
	}

	if msg := a.Message(); msg != "" {
		p.log.Info(msg)
	}
}

func (p *pass) fail(err error) {
	p.stats.Errors++
	p.log.Errorf("Error: %s", err)
}

func (p *pass) reconcile(pair DirectoryPair) error {
	info, err := fs.Stat(pair.Source)
	switch {
	case os.IsNotExist(err), err == nil && !info.IsDir():
		return errors.DirectoryNotFound{Path: pair.Source}
	case err != nil:
		return errors.WithContext(err, "stat source")
	}

	if err := fs.MkdirAll(pair.Replica, 0755); err != nil {
		return errors.WithContext(err, "create replica directory")
	}

	source, err := readDir(pair.Source)
	if err != nil {
		return errors.WithContext(err, "list source")
	}

	replica, err := readDir(pair.Replica)
	if err != nil {
		return errors.WithContext(err, "list replica")
	}

	// Copy everything before deleting anything.
	for _, name := range source.names(source.files) {
		if err := p.syncFile(pair, name, source.files[name], replica); err != nil {
			return err
		}
	}

	for _, name := range replica.names(replica.files) {
		if _, ok := source.files[name]; ok {
			continue
		}

		path := filepath.Join(pair.Replica, name)
		if err := fs.Remove(path); err != nil {
			return errors.WithContext(err, "delete file")
		}
		p.record(Action{Type: Delete, Replica: path})
	}

	for _, name := range source.names(source.dirs) {
		child := DirectoryPair{
			Source:  filepath.Join(pair.Source, name),
			Replica: filepath.Join(pair.Replica, name),
		}

		// Never descend through a replica symlink.
		if _, ok := replica.other[name]; ok {
			if err := fs.Remove(child.Replica); err != nil {
				return errors.WithContext(err, "delete file")
			}
			delete(replica.other, name)
			p.record(Action{Type: Delete, Replica: child.Replica})
		}
		p.record(Action{Type: Recurse, Source: child.Source, Replica: child.Replica})

		if err := p.reconcile(child); err != nil {
			if p.policy != IsolateSubtree {
				return err
			}
			p.fail(err)
		}
	}

	for _, name := range replica.names(replica.dirs) {
		if _, ok := source.dirs[name]; ok {
			continue
		}

		path := filepath.Join(pair.Replica, name)
		if err := fs.RemoveAll(path); err != nil {
			return errors.WithContext(err, "delete directory")
		}
		p.record(Action{Type: DeleteDir, Replica: path})
	}
	return nil
}

// syncFile copies the source file `name` into the replica unless the replica
// already holds an identical file.
func (p *pass) syncFile(pair DirectoryPair, name string, src os.FileInfo, replica listing) error {
	srcPath := filepath.Join(pair.Source, name)
	dstPath := filepath.Join(pair.Replica, name)

	if _, ok := replica.files[name]; ok {
		equal, err := FilesEqual(srcPath, dstPath)
		if err != nil {
			return errors.WithContext(err, "compare file")
		}

		if equal {
			return nil
		}
	} else if _, ok := replica.dirs[name]; ok {
		// The copy can't replace a directory, so clear it first.
		if err := fs.RemoveAll(dstPath); err != nil {
			return errors.WithContext(err, "delete directory")
		}
		delete(replica.dirs, name)
		p.record(Action{Type: DeleteDir, Replica: dstPath})
	} else if _, ok := replica.other[name]; ok {
		// Never write through a replica symlink.
		if err := fs.Remove(dstPath); err != nil {
			return errors.WithContext(err, "delete file")
		}
		delete(replica.other, name)
		p.record(Action{Type: Delete, Replica: dstPath})
	}

	n, err := copyFile(srcPath, dstPath, src.Mode())
	p.stats.BytesCopied += n
	if err != nil {
		return errors.WithContext(err, "copy file")
	}
	p.record(Action{Type: Copy, Source: srcPath, Replica: dstPath})
	return nil
}

// copyFile stages the contents of `src` in a temporary file beside `dst`, and
// then renames it over `dst`. The rename doesn't need write permission on
// `dst`, so read-only replica files can still be updated.
func copyFile(src, dst string, mode os.FileMode) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := afero.TempFile(fs, filepath.Dir(dst), tempFilePattern)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(tmp, in)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = fs.Chmod(tmp.Name(), mode.Perm())
	}
	if err == nil {
		err = fs.Rename(tmp.Name(), dst)
	}

	if err != nil {
		if rmErr := fs.Remove(tmp.Name()); rmErr != nil {
			logrus.WithError(rmErr).WithField("path", tmp.Name()).
				Warn("Failed to remove staging file")
		}
		return n, err
	}
	return n, nil
}

// listing is the contents of a single directory, split by entry type.
type listing struct {
	// sorted holds every entry name in lexical order.
	sorted []string

	files map[string]os.FileInfo
	dirs  map[string]os.FileInfo

	// other holds symlinks, devices, sockets and the like. They're never
	// mirrored.
	other map[string]os.FileInfo
}

func readDir(path string) (listing, error) {
	infos, err := afero.ReadDir(fs, path)
	if err != nil {
		return listing{}, err
	}

	l := listing{
		files: map[string]os.FileInfo{},
		dirs:  map[string]os.FileInfo{},
		other: map[string]os.FileInfo{},
	}
	for _, fi := range infos {
		switch {
		case fi.IsDir():
			l.dirs[fi.Name()] = fi
		case fi.Mode().IsRegular():
			l.files[fi.Name()] = fi
		default:
			l.other[fi.Name()] = fi
		}
		l.sorted = append(l.sorted, fi.Name())
	}
	return l, nil
}

// names returns the entries of `l` that are still in `set`, in lexical order.
func (l listing) names(set map[string]os.FileInfo) (names []string) {
	for _, name := range l.sorted {
		if _, ok := set[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
