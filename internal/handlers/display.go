// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/session"
	"github.com/vosemu/vosemu/internal/vospath"
)

const timestampLayout = "2006-01-02 15:04:05"

func (b *Builtins) displayCommands() []command {
	return []command{
		{"display_file", exactArgs(1, "usage: display_file <path>", displayFile), "Display the contents of a text file. Usage: display_file <path>"},
		{"display_file_status", exactArgs(1, "usage: display_file_status <path>", displayFileStatus), "Show file metadata such as type, size and modification time. Usage: display_file_status <path>"},
		{"display_dir_status", maxArgs(1, "usage: display_dir_status [path]", displayDirStatus), "Show a summary of a directory's contents (counts and total size). Usage: display_dir_status [path]"},
		{"display_disk_usage", maxArgs(1, "usage: display_disk_usage [path]", b.displayDiskUsage), "Show total, used and free space for a directory. Usage: display_disk_usage [path]"},
		{"dump_file", exactArgs(1, "usage: dump_file <path>", dumpFile), "Dump a file in hex with offsets. Usage: dump_file <path>"},
		{"display_current_dir", exactArgs(0, "usage: display_current_dir", displayCurrentDir), "Display the current working directory in VOS format (e.g. >Sales>Jones). Usage: display_current_dir"},
		{"display_current_module", exactArgs(0, "usage: display_current_module", displayCurrentModule), "Display the current module name. Usage: display_current_module"},
		{"display_date_time", exactArgs(0, "usage: display_date_time", b.displayDateTime), "Display the current date and time. Usage: display_date_time"},
		{"display_line", displayLine, "Display a line of text. Usage: display_line <text>"},
		{"change_current_dir", exactArgs(1, "usage: change_current_dir <path>", changeCurrentDir), "Change the current working directory within the sandbox. The path may be VOS-style (e.g. >Sales>Jones) or relative; it must already exist. Usage: change_current_dir <path>"},
	}
}

// wrapLine breaks s at word boundaries so no line exceeds width, splitting
// words that are longer than width on their own.
func wrapLine(s string, width int) string {
	width = max(1, width)
	return wrap.String(wordwrap.String(s, width), width)
}

func displayFile(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	if isDir(path) {
		return "", issue.IOf("display_file: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", issue.IO("display_file", err)
	}
	text := strings.ToValidUTF8(string(data), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return "", nil
	}

	width := sess.LineWrapWidth()
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if ln != "" {
			lines[i] = wrapLine(ln, width)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func fileType(mode fs.FileMode) string {
	switch {
	case mode.IsDir():
		return "directory"
	case mode.IsRegular():
		return "file"
	default:
		return "other"
	}
}

func displayFileStatus(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	info, err := os.Stat(path)
	if err != nil {
		return "", issue.IO("display_file_status", err)
	}
	return fmt.Sprintf("Name: %s\nPath: %s\nType: %s\nSize: %d bytes\nModified: %s",
		filepath.Base(path), path, fileType(info.Mode()), info.Size(),
		info.ModTime().In(sessionLocation(sess)).Format(timestampLayout)), nil
}

func displayDirStatus(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Root()
	if len(args) == 1 && args[0] != "" {
		path = sess.Resolve(args[0])
	}
	if !isDir(path) {
		return "", issue.IOf("display_dir_status: %s is not a directory", path)
	}

	var dirs, files, size int64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			return nil
		}
		if p == path {
			return nil
		}
		if d.IsDir() {
			dirs++
			return nil
		}
		files++
		if fi, err := d.Info(); err == nil {
			size += fi.Size()
		}
		return nil
	})
	if err != nil {
		return "", issue.IO("display_dir_status", err)
	}
	return fmt.Sprintf("Directory: %s\nSubdirectories: %d\nFiles: %d\nTotal size: %d bytes", path, dirs, files, size), nil
}

func (b *Builtins) displayDiskUsage(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Root()
	if len(args) == 1 && args[0] != "" {
		path = sess.Resolve(args[0])
	}
	usage, err := b.Host.DiskUsage(path)
	if err != nil {
		return "", issue.IO("display_disk_usage", err)
	}
	return fmt.Sprintf("Path: %s\n%s", path, usage), nil
}

func dumpFile(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	if isDir(path) {
		return "", issue.IOf("dump_file: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", issue.IO("dump_file", err)
	}
	return hexDump(data), nil
}

// hexDump renders data as 16-byte rows: an 8-digit hex offset, the bytes in
// hex padded to full width, and their printable ASCII form.
func hexDump(data []byte) string {
	var rows []string
	for off := 0; off < len(data); off += 16 {
		chunk := data[off:min(off+16, len(data))]
		hexes := make([]string, len(chunk))
		var ascii strings.Builder
		for i, c := range chunk {
			hexes[i] = fmt.Sprintf("%02x", c)
			if c >= 32 && c < 127 {
				ascii.WriteByte(c)
			} else {
				ascii.WriteByte('.')
			}
		}
		rows = append(rows, fmt.Sprintf("%08x  %-47s  %s", off, strings.Join(hexes, " "), ascii.String()))
	}
	return strings.Join(rows, "\n")
}

func displayCurrentDir(_ context.Context, sess *session.Session, _ []string) (string, error) {
	return "Current directory: " + vospath.Format(sess.CurrentDir()), nil
}

func displayCurrentModule(context.Context, *session.Session, []string) (string, error) {
	return "Current module: " + session.DefaultModule, nil
}

// sessionLocation returns the session time zone, or UTC when the zone name
// cannot be loaded.
func sessionLocation(sess *session.Session) *time.Location {
	loc, err := time.LoadLocation(sess.TimeZone())
	if err != nil {
		return time.UTC
	}
	return loc
}

func (b *Builtins) displayDateTime(_ context.Context, sess *session.Session, _ []string) (string, error) {
	return b.Now().In(sessionLocation(sess)).Format(timestampLayout), nil
}

func displayLine(_ context.Context, _ *session.Session, args []string) (string, error) {
	if len(args) == 0 {
		return "", issue.Usagef("usage: display_line <text>")
	}
	return strings.Join(args, " "), nil
}

func changeCurrentDir(_ context.Context, sess *session.Session, args []string) (string, error) {
	dir, err := sess.ChangeDir(args[0])
	switch {
	case err == nil:
		return ok("current directory set to " + dir), nil
	case errors.Is(err, vospath.ErrOutsideSandbox):
		return "", issue.Containment("change_current_dir: "+err.Error(), err)
	default:
		return "", issue.IO("change_current_dir", err)
	}
}
