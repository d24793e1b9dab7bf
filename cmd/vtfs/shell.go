package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/driver"
	"github.com/secs-dev/vtfs/drivers/ramfs"
)

// Shell runs line-oriented commands against one store.
type Shell struct {
	store  *ramfs.Driver
	driver *driver.Driver
	out    io.Writer
}

type commandFunc func(shell *Shell, args []string) error

type command struct {
	minArgs int
	maxArgs int // -1 for no limit
	usage   string
	run     commandFunc
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"mkdir":    {1, 2, "mkdir PATH [MODE] | mkdir -p PATH", (*Shell).mkdir},
		"touch":    {1, 2, "touch PATH [MODE]", (*Shell).touch},
		"write":    {1, -1, "write PATH TEXT...", (*Shell).write},
		"append":   {1, -1, "append PATH TEXT...", (*Shell).appendText},
		"cat":      {1, 1, "cat PATH", (*Shell).cat},
		"ln":       {2, 2, "ln OLD NEW", (*Shell).ln},
		"rm":       {1, 2, "rm [-r] PATH", (*Shell).rm},
		"rmdir":    {1, 1, "rmdir PATH", (*Shell).rmdir},
		"ls":       {0, 1, "ls [PATH]", (*Shell).ls},
		"stat":     {1, 1, "stat PATH", (*Shell).stat},
		"truncate": {2, 2, "truncate PATH SIZE", (*Shell).truncate},
		"chmod":    {2, 2, "chmod MODE PATH", (*Shell).chmod},
		"cd":       {1, 1, "cd PATH", (*Shell).cd},
		"pwd":      {0, 0, "pwd", (*Shell).pwd},
		"df":       {0, 0, "df", (*Shell).df},
		"check":    {0, 0, "check", (*Shell).check},
		"dump":     {0, 0, "dump", (*Shell).dump},
		"export":   {1, 1, "export PATH", (*Shell).export},
	}
}

// NewShell creates a shell over a fresh store with the given capacities.
func NewShell(opts ramfs.Options, out io.Writer) (*Shell, error) {
	store, err := ramfs.New(opts)
	if err != nil {
		return nil, err
	}
	return &Shell{
		store:  store,
		driver: driver.New(store),
		out:    out,
	}, nil
}

// Run executes every line of `script`. Blank lines are ignored, and so is
// everything from a word starting with `#` to the end of the line. It stops at
// the first failing line.
func (shell *Shell) Run(script io.Reader) error {
	scanner := bufio.NewScanner(script)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := shell.Exec(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	return scanner.Err()
}

// Exec runs a single command line.
func (shell *Shell) Exec(line string) error {
	fields := strings.Fields(line)
	for i, field := range fields {
		if strings.HasPrefix(field, "#") {
			fields = fields[:i]
			break
		}
	}
	if len(fields) == 0 {
		return nil
	}

	name, args := fields[0], fields[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(shell, args)
}

// parseMode reads an octal permission string like "755" or "0644".
func parseMode(text string) (uint32, error) {
	mode, err := strconv.ParseUint(text, 8, 32)
	if err != nil {
		return 0, vtfs.ErrInvalidArgument.WithMessage(fmt.Sprintf("bad mode %q", text))
	}
	return uint32(mode) & vtfs.PermissionBits, nil
}

func modeArg(args []string, index int, fallback uint32) (uint32, error) {
	if len(args) <= index {
		return fallback, nil
	}
	return parseMode(args[index])
}

func (shell *Shell) mkdir(args []string) error {
	if args[0] == "-p" {
		if len(args) != 2 {
			return fmt.Errorf("usage: %s", commands["mkdir"].usage)
		}
		return shell.driver.MkdirAll(args[1], 0o755)
	}

	mode, err := modeArg(args, 1, 0o755)
	if err != nil {
		return err
	}
	return shell.driver.Mkdir(args[0], vtfs.ToFileMode(mode))
}

func (shell *Shell) touch(args []string) error {
	mode, err := modeArg(args, 1, 0o644)
	if err != nil {
		return err
	}
	file, err := shell.driver.OpenFile(args[0], vtfs.O_WRONLY|vtfs.O_CREATE, vtfs.ToFileMode(mode))
	if err != nil {
		return err
	}
	return file.Close()
}

func (shell *Shell) writeWithFlags(args []string, flags vtfs.IOFlags) error {
	file, err := shell.driver.OpenFile(args[0], vtfs.O_WRONLY|vtfs.O_CREATE|flags, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(strings.Join(args[1:], " "))
	return err
}

func (shell *Shell) write(args []string) error {
	return shell.writeWithFlags(args, vtfs.O_TRUNC)
}

func (shell *Shell) appendText(args []string) error {
	return shell.writeWithFlags(args, vtfs.O_APPEND)
}

func (shell *Shell) cat(args []string) error {
	data, err := shell.driver.ReadFile(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(shell.out, "%s\n", data)
	return nil
}

func (shell *Shell) ln(args []string) error {
	return shell.driver.Link(args[0], args[1])
}

func (shell *Shell) rm(args []string) error {
	if args[0] == "-r" {
		if len(args) != 2 {
			return fmt.Errorf("usage: %s", commands["rm"].usage)
		}
		return shell.driver.RemoveAll(args[1])
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["rm"].usage)
	}

	info, err := shell.driver.Stat(args[0])
	if err != nil {
		return err
	}
	if info.IsDir() {
		return vtfs.ErrIsADirectory.WithMessage(fmt.Sprintf("can't rm %q: use rmdir", args[0]))
	}
	return shell.driver.Remove(args[0])
}

func (shell *Shell) rmdir(args []string) error {
	info, err := shell.driver.Stat(args[0])
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return vtfs.ErrNotADirectory.WithMessage(args[0])
	}
	return shell.driver.Remove(args[0])
}

func (shell *Shell) ls(args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	infos, err := shell.driver.ReadDir(path)
	if err != nil {
		return err
	}
	for _, info := range infos {
		attr := info.Attr()
		fmt.Fprintf(shell.out, "%d\t%s\t%d\t%s\n", attr.Inode, info.Mode(), attr.Size, info.Name())
	}
	return nil
}

func (shell *Shell) stat(args []string) error {
	info, err := shell.driver.Stat(args[0])
	if err != nil {
		return err
	}
	attr := info.Attr()
	fmt.Fprintf(
		shell.out,
		"inode=%d type=%s mode=%04o size=%d nlink=%d\n",
		attr.Inode,
		attr.Type,
		attr.Mode&vtfs.PermissionBits,
		attr.Size,
		attr.Nlink,
	)
	return nil
}

func (shell *Shell) truncate(args []string) error {
	size, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return vtfs.ErrInvalidArgument.WithMessage(fmt.Sprintf("bad size %q", args[1]))
	}
	return shell.driver.Truncate(args[0], size)
}

func (shell *Shell) chmod(args []string) error {
	mode, err := parseMode(args[0])
	if err != nil {
		return err
	}
	return shell.driver.Chmod(args[1], vtfs.ToFileMode(mode))
}

func (shell *Shell) cd(args []string) error {
	return shell.driver.Chdir(args[0])
}

func (shell *Shell) pwd([]string) error {
	wd, err := shell.driver.Getwd()
	if err != nil {
		return err
	}
	fmt.Fprintln(shell.out, wd)
	return nil
}

func (shell *Shell) df([]string) error {
	stat := shell.store.StatFS()
	fmt.Fprintf(
		shell.out,
		"inodes %d/%d entries %d/%d file-size %d name-length %d\n",
		stat.TotalInodes-stat.FreeInodes,
		stat.TotalInodes,
		stat.TotalEntries-stat.FreeEntries,
		stat.TotalEntries,
		stat.MaxFileSize,
		stat.MaxNameLength,
	)
	return nil
}

func (shell *Shell) check([]string) error {
	if err := shell.store.Check(); err != nil {
		return err
	}
	fmt.Fprintln(shell.out, "ok")
	return nil
}
