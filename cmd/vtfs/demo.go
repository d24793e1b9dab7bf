package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/ramfs"
)

// Demo walks through identity assignment, hard links and capacity errors on
// a fresh store, printing each step to `out`.
func Demo(opts ramfs.Options, out io.Writer) error {
	store, err := ramfs.New(opts)
	if err != nil {
		return err
	}
	step := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	root := store.Root()
	step("root = %d", root)

	dir, err := store.Mkdir(root, "d", 0o755)
	if err != nil {
		return err
	}
	step("mkdir d -> %d", dir)

	file, err := store.Create(dir, "f.txt", 0o644)
	if err != nil {
		return err
	}
	step("create d/f.txt -> %d", file)

	n, err := store.Write(file, 0, []byte("hello"))
	if err != nil {
		return err
	}
	step("write %d \"hello\" -> %d", file, n)

	data, eof, err := store.Read(file, 0, 100)
	if err != nil {
		return err
	}
	step("read %d -> %q eof=%t", file, data, eof)

	if err := store.Link(file, dir, "f2.txt"); err != nil {
		return err
	}
	attr, err := store.Getattr(file)
	if err != nil {
		return err
	}
	step("link d/f2.txt -> nlink=%d", attr.Nlink)

	if err := store.Unlink(dir, "f.txt"); err != nil {
		return err
	}
	attr, err = store.Getattr(file)
	if err != nil {
		return err
	}
	step("unlink d/f.txt -> nlink=%d", attr.Nlink)

	_, err = store.Lookup(dir, "f.txt")
	step("lookup d/f.txt -> %v", err)
	attr, err = store.Lookup(dir, "f2.txt")
	if err != nil {
		return err
	}
	step("lookup d/f2.txt -> %d", attr.Inode)

	_, err = store.Write(file, opts.MaxFileSize-2, []byte("overflow"))
	step("write past capacity -> %v", err)

	created := 0
	for {
		_, err = store.Create(root, fmt.Sprintf("fill%d", created), 0o644)
		if err != nil {
			break
		}
		created++
	}
	if !errors.Is(err, vtfs.ErrNoSpaceOnDevice) {
		return err
	}
	step("created %d more files, then -> %v", created, err)

	return store.Check()
}
