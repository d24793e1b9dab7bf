// Package driver puts a path-based, [os]-like interface on top of a
// [vtfs.Store]: absolute and relative paths, a working directory, and file
// handles.
package driver

import (
	"errors"
	"fmt"
	"os"
	posixpath "path"
	"path/filepath"
	"strings"

	"github.com/secs-dev/vtfs"
)

// Driver resolves paths against a store. It keeps a working directory, so a
// Driver must not be shared by goroutines that call [Driver.Chdir]. The store
// itself may be shared freely.
type Driver struct {
	store          vtfs.Store
	workingDirPath string
}

// New creates a new [Driver] for `store`, with "/" as the working directory.
func New(store vtfs.Store) *Driver {
	return &Driver{
		store:          store,
		workingDirPath: "/",
	}
}

// Store returns the store the driver operates on.
func (driver *Driver) Store() vtfs.Store {
	return driver.store
}

func (driver *Driver) NormalizePath(path string) string {
	path = posixpath.Clean(filepath.ToSlash(path))
	if path == "." {
		path = driver.workingDirPath
	}
	if posixpath.IsAbs(path) {
		return path
	}
	return posixpath.Join(driver.workingDirPath, path)
}

// resolve walks a normalized absolute path from the root, one component at a
// time.
func (driver *Driver) resolve(absPath string) (vtfs.Attr, error) {
	attr, err := driver.store.Getattr(driver.store.Root())
	if err != nil {
		return vtfs.Attr{}, err
	}

	walked := "/"
	for _, component := range strings.Split(strings.TrimPrefix(absPath, "/"), "/") {
		if component == "" {
			continue
		}
		if !attr.IsDir() {
			return vtfs.Attr{}, vtfs.ErrNotADirectory.WithMessage(
				fmt.Sprintf("cannot resolve path %q: %q is not a directory", absPath, walked),
			)
		}
		attr, err = driver.store.Lookup(attr.Inode, component)
		if err != nil {
			return vtfs.Attr{}, err
		}
		walked = posixpath.Join(walked, component)
	}
	return attr, nil
}

// resolveParent returns the directory that would contain `absPath`, and the
// last component of the path.
func (driver *Driver) resolveParent(absPath string) (vtfs.InodeID, string, error) {
	if absPath == "/" {
		return vtfs.InvalidInodeID, "", vtfs.ErrInvalidArgument.WithMessage(
			"the root directory has no parent",
		)
	}

	parentDir, baseName := posixpath.Split(absPath)
	parent, err := driver.resolve(parentDir)
	if err != nil {
		return vtfs.InvalidInodeID, "", err
	}
	if !parent.IsDir() {
		return vtfs.InvalidInodeID, "", vtfs.ErrNotADirectory.WithMessage(
			fmt.Sprintf("cannot resolve path %q: %q is not a directory", absPath, parentDir),
		)
	}
	return parent.Inode, baseName, nil
}

// OpenFile opens a file for I/O. Directories can only be opened read-only, to
// list them with [File.ReadDir] or [File.Readdirnames].
func (driver *Driver) OpenFile(path string, flags vtfs.IOFlags, perm os.FileMode) (*File, error) {
	absPath := driver.NormalizePath(path)

	attr, err := driver.resolve(absPath)
	if err != nil {
		// If the file is missing we may be able to create it and proceed.
		if !errors.Is(err, vtfs.ErrNotFound) || !flags.Create() {
			return nil, err
		}

		parent, baseName, parentErr := driver.resolveParent(absPath)
		if parentErr != nil {
			return nil, parentErr
		}
		id, createErr := driver.store.Create(parent, baseName, vtfs.FromFileMode(perm))
		if createErr != nil {
			return nil, createErr
		}
		attr, err = driver.store.Getattr(id)
		if err != nil {
			return nil, err
		}
	} else if flags.Create() && flags.Exclusive() {
		return nil, vtfs.ErrExists.WithMessage(absPath)
	}

	if attr.IsDir() && flags.RequiresWritePerm() {
		return nil, vtfs.ErrIsADirectory.WithMessage(absPath)
	}
	return newFile(driver, attr, absPath, flags)
}

func (driver *Driver) Open(path string) (*File, error) {
	return driver.OpenFile(path, vtfs.O_RDONLY, 0)
}

// Create creates a file and opens it for reading and writing. It fails if the
// file already exists.
func (driver *Driver) Create(path string) (*File, error) {
	return driver.OpenFile(path, vtfs.O_RDWR|vtfs.O_CREATE|vtfs.O_EXCL, 0o666)
}

func (driver *Driver) Chdir(path string) error {
	absPath := driver.NormalizePath(path)
	attr, err := driver.resolve(absPath)
	if err != nil {
		return err
	}
	if !attr.IsDir() {
		return vtfs.ErrNotADirectory.WithMessage(absPath)
	}

	driver.workingDirPath = absPath
	return nil
}

// Getwd returns the working directory as an absolute path. The error will always
// be nil; it's only there for compatibility with [os.Getwd].
func (driver *Driver) Getwd() (string, error) {
	return driver.workingDirPath, nil
}

func (driver *Driver) Stat(path string) (FileInfo, error) {
	absPath := driver.NormalizePath(path)
	attr, err := driver.resolve(absPath)
	if err != nil {
		return FileInfo{}, err
	}
	return newFileInfo(posixpath.Base(absPath), attr), nil
}

// SameFile reports whether two [FileInfo]s describe the same inode.
func (driver *Driver) SameFile(fi1, fi2 os.FileInfo) bool {
	attr1, ok1 := fi1.Sys().(vtfs.Attr)
	attr2, ok2 := fi2.Sys().(vtfs.Attr)
	return ok1 && ok2 && attr1.Inode == attr2.Inode
}

func (driver *Driver) ReadFile(path string) ([]byte, error) {
	absPath := driver.NormalizePath(path)
	attr, err := driver.resolve(absPath)
	if err != nil {
		return nil, err
	}
	if attr.IsDir() {
		return nil, vtfs.ErrIsADirectory.WithMessage(absPath)
	}

	data, _, err := driver.store.Read(attr.Inode, 0, int(attr.Size))
	return data, err
}

// WriteFile sets the contents of a file to the given data, creating it if
// necessary.
func (driver *Driver) WriteFile(path string, data []byte, perm os.FileMode) error {
	handle, err := driver.OpenFile(path, vtfs.O_WRONLY|vtfs.O_CREATE|vtfs.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer handle.Close()

	_, err = handle.Write(data)
	return err
}

// ReadDir lists a directory in store order, without the "." and ".." entries.
func (driver *Driver) ReadDir(path string) ([]FileInfo, error) {
	handle, err := driver.Open(path)
	if err != nil {
		return nil, err
	}
	defer handle.Close()
	return handle.readDir(-1)
}

func (driver *Driver) Mkdir(path string, perm os.FileMode) error {
	absPath := driver.NormalizePath(path)
	parent, baseName, err := driver.resolveParent(absPath)
	if err != nil {
		if absPath == "/" {
			return vtfs.ErrExists.WithMessage(absPath)
		}
		return err
	}

	_, err = driver.store.Mkdir(parent, baseName, vtfs.FromFileMode(perm))
	return err
}

// MkdirAll creates a directory along with any missing parents. It succeeds
// without doing anything if the directory already exists.
func (driver *Driver) MkdirAll(path string, perm os.FileMode) error {
	absPath := driver.NormalizePath(path)

	attr, err := driver.resolve(absPath)
	if err == nil {
		if !attr.IsDir() {
			return vtfs.ErrNotADirectory.WithMessage(absPath)
		}
		return nil
	} else if !errors.Is(err, vtfs.ErrNotFound) {
		return err
	}

	if err := driver.MkdirAll(posixpath.Dir(absPath), perm); err != nil {
		return err
	}
	return driver.Mkdir(absPath, perm)
}

// Link creates `newPath` as another name for the file at `oldPath`.
func (driver *Driver) Link(oldPath, newPath string) error {
	oldAbsPath := driver.NormalizePath(oldPath)
	target, err := driver.resolve(oldAbsPath)
	if err != nil {
		return err
	}

	parent, baseName, err := driver.resolveParent(driver.NormalizePath(newPath))
	if err != nil {
		return err
	}
	return driver.store.Link(target.Inode, parent, baseName)
}

// Remove deletes a file or an empty directory.
func (driver *Driver) Remove(path string) error {
	absPath := driver.NormalizePath(path)
	if absPath == "/" {
		return vtfs.ErrPermissionDenied.WithMessage("you can't remove the root directory")
	}

	parent, baseName, err := driver.resolveParent(absPath)
	if err != nil {
		return err
	}
	attr, err := driver.store.Lookup(parent, baseName)
	if err != nil {
		return err
	}

	if attr.IsDir() {
		return driver.store.Rmdir(parent, baseName)
	}
	return driver.store.Unlink(parent, baseName)
}

// RemoveAll deletes `path` and, if it's a directory, everything in it. A path
// that doesn't exist isn't an error.
func (driver *Driver) RemoveAll(path string) error {
	absPath := driver.NormalizePath(path)

	// Block an attempt at `rm -rf /`, because some clown is gonna try it.
	if absPath == "/" {
		return vtfs.ErrPermissionDenied.WithMessage("you can't remove the root directory")
	}

	attr, err := driver.resolve(absPath)
	if errors.Is(err, vtfs.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	if attr.IsDir() {
		if err := driver.removeDirectoryContents(attr.Inode); err != nil {
			return err
		}
	}
	return driver.Remove(absPath)
}

// removeDirectoryContents is equivalent to `rm -rf dir/*`.
//
// Deletion is depth-first, and terminates on the first error encountered.
func (driver *Driver) removeDirectoryContents(dir vtfs.InodeID) error {
	// Collect first: removing entries while iterating shifts positions.
	var children []vtfs.DirectoryEntry
	_, err := driver.store.Iterate(dir, vtfs.FirstEntryPos, func(entry vtfs.DirectoryEntry) bool {
		children = append(children, entry)
		return true
	})
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.IsDir() {
			if err := driver.removeDirectoryContents(child.Inode); err != nil {
				return err
			}
			err = driver.store.Rmdir(dir, child.Name)
		} else {
			err = driver.store.Unlink(dir, child.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Truncate changes the size of a file.
func (driver *Driver) Truncate(path string, size int64) error {
	absPath := driver.NormalizePath(path)
	attr, err := driver.resolve(absPath)
	if err != nil {
		return err
	}
	if attr.IsDir() {
		return vtfs.ErrIsADirectory.WithMessage(absPath)
	}
	return driver.store.Truncate(attr.Inode, size)
}

func (driver *Driver) Chmod(path string, mode os.FileMode) error {
	absPath := driver.NormalizePath(path)
	attr, err := driver.resolve(absPath)
	if err != nil {
		return err
	}
	return driver.store.Chmod(attr.Inode, vtfs.FromFileMode(mode))
}
