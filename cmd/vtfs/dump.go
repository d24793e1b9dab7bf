package main

import (
	"encoding/hex"
	"fmt"
	posixpath "path"

	"github.com/gocarina/gocsv"
	"github.com/noxer/bytewriter"
	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common/basicstream"
)

// dumpRow is one name in the tree. A file with several hard links shows up
// once per name.
type dumpRow struct {
	Path  string `csv:"path"`
	Inode uint64 `csv:"inode"`
	Type  string `csv:"type"`
	Mode  string `csv:"mode"`
	Size  int64  `csv:"size"`
	Nlink uint32 `csv:"nlink"`
}

func newDumpRow(path string, attr vtfs.Attr) *dumpRow {
	return &dumpRow{
		Path:  path,
		Inode: uint64(attr.Inode),
		Type:  attr.Type.String(),
		Mode:  fmt.Sprintf("%04o", attr.Mode&vtfs.PermissionBits),
		Size:  attr.Size,
		Nlink: attr.Nlink,
	}
}

// collectRows appends a row for every name below `dirPath`, depth first.
func (shell *Shell) collectRows(dirPath string, rows []*dumpRow) ([]*dumpRow, error) {
	infos, err := shell.driver.ReadDir(dirPath)
	if err != nil {
		return rows, err
	}
	for _, info := range infos {
		path := posixpath.Join(dirPath, info.Name())
		rows = append(rows, newDumpRow(path, info.Attr()))
		if info.IsDir() {
			rows, err = shell.collectRows(path, rows)
			if err != nil {
				return rows, err
			}
		}
	}
	return rows, nil
}

// dump prints the whole tree as CSV.
func (shell *Shell) dump([]string) error {
	root, err := shell.store.Getattr(shell.store.Root())
	if err != nil {
		return err
	}

	rows, err := shell.collectRows("/", []*dumpRow{newDumpRow("/", root)})
	if err != nil {
		return err
	}
	return gocsv.Marshal(&rows, shell.out)
}

// export copies a file into a buffer the size of a file's capacity, the way
// it would sit in a fixed-size image, and prints a hex dump of it.
func (shell *Shell) export(args []string) error {
	info, err := shell.driver.Stat(args[0])
	if err != nil {
		return err
	}
	stream, err := basicstream.Open(shell.store, info.Attr().Inode, vtfs.O_RDONLY)
	if err != nil {
		return err
	}
	defer stream.Close()

	image := make([]byte, shell.store.Options().MaxFileSize)
	written, err := stream.WriteTo(bytewriter.New(image))
	if err != nil {
		return err
	}

	fmt.Fprintf(shell.out, "%d of %d bytes\n", written, len(image))
	_, err = fmt.Fprint(shell.out, hex.Dump(image[:written]))
	return err
}
