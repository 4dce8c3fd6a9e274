// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/session"
)

func (b *Builtins) fileCommands() []command {
	return []command{
		{"list", maxArgs(1, "usage: list [path]", b.list), "List files in a directory. Usage: list [path]"},
		{"create_file", exactArgs(1, "usage: create_file <path>", createFile), "Create an empty file. Usage: create_file <path>"},
		{"copy_file", exactArgs(2, "usage: copy_file <src> <dst>", copyFileCmd("copy_file")), "Copy file. Usage: copy_file <src> <dst>"},
		{"clone_file", exactArgs(2, "usage: copy_file <src> <dst>", copyFileCmd("copy_file")), "Clone (copy) a file. Usage: clone_file <src> <dst>"},
		{"move_file", exactArgs(2, "usage: move_file <src> <dst>", moveCmd("move_file", "moved")), "Move/rename file. Usage: move_file <src> <dst>"},
		{"compare_files", exactArgs(2, "usage: compare_files <a> <b>", compareFiles), "Compare two files and report first difference. Usage: compare_files <a> <b>"},
		{"delete_file", exactArgs(1, "usage: delete_file <path>", deleteFile), "Delete a file. Usage: delete_file <path>"},
		{"create_dir", exactArgs(1, "usage: create_dir <path>", createDir), "Create a directory recursively within the state directory. Usage: create_dir <path>"},
		{"copy_dir", exactArgs(2, "usage: copy_dir <src> <dst>", copyDirCmd), "Copy a directory recursively from source to destination within the state directory. Usage: copy_dir <src> <dst>"},
		{"clone_dir", exactArgs(2, "usage: copy_dir <src> <dst>", copyDirCmd), "Clone (copy) a directory recursively. Usage: clone_dir <src> <dst>"},
		{"move_dir", exactArgs(2, "usage: move_dir <src> <dst>", moveCmd("move_dir", "moved directory")), "Move or rename a directory within the state directory. Usage: move_dir <src> <dst>"},
		{"delete_dir", exactArgs(1, "usage: delete_dir <path>", deleteDir), "Delete a directory and its contents within the state directory. Usage: delete_dir <path>"},
		{"rename", exactArgs(2, "usage: rename <src> <dst>", renameCmd), "Rename a file or directory within the state directory. Usage: rename <src> <dst>"},
		{"compare_dirs", exactArgs(2, "usage: compare_dirs <dir1> <dir2>", compareDirs), "Compare two directories recursively. Usage: compare_dirs <dir1> <dir2>"},
	}
}

func (b *Builtins) list(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Dir()
	if len(args) == 1 && args[0] != "" {
		path = sess.Resolve(args[0])
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", issue.IOf("path not found: %s", path)
	}
	if err != nil {
		return "", issue.IO("list", err)
	}
	if !info.IsDir() {
		return filepath.Base(path), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", issue.IO("list", err)
	}
	if len(entries) == 0 {
		return "(empty)", nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		// Follow symlinks when deciding whether to mark a directory.
		if fi, err := os.Stat(filepath.Join(path, name)); err == nil && fi.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return strings.Join(names, "\n"), nil
}

func createFile(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", issue.IO("create_file", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", issue.IO("create_file", err)
	}
	if err := f.Close(); err != nil {
		return "", issue.IO("create_file", err)
	}
	return ok("created file: " + path), nil
}

func copyFileCmd(op string) func(context.Context, *session.Session, []string) (string, error) {
	return func(_ context.Context, sess *session.Session, args []string) (string, error) {
		src, dst := sess.Resolve(args[0]), sess.Resolve(args[1])
		if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
			dst = filepath.Join(dst, filepath.Base(src))
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", issue.IO(op, err)
		}
		if err := copyFile(src, dst); err != nil {
			return "", issue.IO(op, err)
		}
		return ok(fmt.Sprintf("copied %s -> %s", src, dst)), nil
	}
}

// copyFile copies src to dst with its permission bits and modification time.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }() // read-only handle

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func moveCmd(op, verb string) func(context.Context, *session.Session, []string) (string, error) {
	return func(_ context.Context, sess *session.Session, args []string) (string, error) {
		src, dst := sess.Resolve(args[0]), sess.Resolve(args[1])
		if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
			dst = filepath.Join(dst, filepath.Base(src))
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", issue.IO(op, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return "", issue.IO(op, err)
		}
		return ok(fmt.Sprintf("%s %s -> %s", verb, src, dst)), nil
	}
}

func renameCmd(_ context.Context, sess *session.Session, args []string) (string, error) {
	src, dst := sess.Resolve(args[0]), sess.Resolve(args[1])
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", issue.IO("rename", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", issue.IO("rename", err)
	}
	return ok(fmt.Sprintf("renamed %s -> %s", src, dst)), nil
}

func compareFiles(_ context.Context, sess *session.Session, args []string) (string, error) {
	a, err := os.ReadFile(sess.Resolve(args[0]))
	if err != nil {
		return "", issue.IO("compare_files", err)
	}
	b, err := os.ReadFile(sess.Resolve(args[1]))
	if err != nil {
		return "", issue.IO("compare_files", err)
	}
	if bytes.Equal(a, b) {
		return "Files are identical.", nil
	}
	lim := min(len(a), len(b))
	off := lim
	for i := range lim {
		if a[i] != b[i] {
			off = i
			break
		}
	}
	return fmt.Sprintf("Files differ at byte %d", off), nil
}

func deleteFile(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	if fi, err := os.Lstat(path); err == nil && fi.IsDir() {
		return "", issue.IOf("delete_file: %s is a directory", path)
	}
	if err := os.Remove(path); err != nil {
		return "", issue.IO("delete_file", err)
	}
	return ok("deleted " + path), nil
}

func createDir(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", issue.IO("create_dir", err)
	}
	return ok("created directory: " + path), nil
}

func copyDirCmd(_ context.Context, sess *session.Session, args []string) (string, error) {
	src, dst := sess.Resolve(args[0]), sess.Resolve(args[1])
	if err := copyTree(src, dst); err != nil {
		return "", issue.IO("copy_dir", err)
	}
	return ok(fmt.Sprintf("copied directory %s -> %s", src, dst)), nil
}

// copyTree copies the directory src onto dst. Existing directories are
// merged and existing files overwritten. The source is listed before dst is
// created, and a dst inside src is never descended into.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("cannot copy %s onto itself", src)
	}

	type item struct {
		path string
		d    fs.DirEntry
	}
	var items []item
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dst && d.IsDir() {
			return fs.SkipDir
		}
		items = append(items, item{path, d})
		return nil
	})
	if err != nil {
		return err
	}

	for _, it := range items {
		rel, err := filepath.Rel(src, it.path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case it.d.IsDir():
			fi, err := it.d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, fi.Mode().Perm()|0o700); err != nil {
				return err
			}
		case it.d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(it.path)
			if err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(link, target); err != nil {
				return err
			}
		default:
			if err := copyFile(it.path, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteDir(_ context.Context, sess *session.Session, args []string) (string, error) {
	path := sess.Resolve(args[0])
	info, err := os.Lstat(path)
	if err != nil {
		return "", issue.IO("delete_dir", err)
	}
	if !info.IsDir() {
		return "", issue.IOf("delete_dir: %s is not a directory", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return "", issue.IO("delete_dir", err)
	}
	return ok("deleted directory: " + path), nil
}

// treeSizes maps every regular file beneath root, by relative path, to its
// size, or -1 when the size cannot be read.
func treeSizes(root string) (map[string]int64, error) {
	out := make(map[string]int64)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[rel] = -1
		if fi, err := d.Info(); err == nil {
			out[rel] = fi.Size()
		}
		return nil
	})
	return out, err
}

func compareDirs(_ context.Context, sess *session.Session, args []string) (string, error) {
	d1, d2 := sess.Resolve(args[0]), sess.Resolve(args[1])
	if !isDir(d1) || !isDir(d2) {
		return "", issue.Usagef("both arguments must be directories")
	}
	first, err := treeSizes(d1)
	if err != nil {
		return "", issue.IO("compare_dirs", err)
	}
	second, err := treeSizes(d2)
	if err != nil {
		return "", issue.IO("compare_dirs", err)
	}

	var only1, only2, common []string
	for rel := range first {
		if _, ok := second[rel]; ok {
			common = append(common, rel)
		} else {
			only1 = append(only1, rel)
		}
	}
	for rel := range second {
		if _, ok := first[rel]; !ok {
			only2 = append(only2, rel)
		}
	}
	slices.Sort(only1)
	slices.Sort(only2)
	slices.Sort(common)

	var diffs []string
	if len(only1) > 0 {
		diffs = append(diffs, "Only in first: "+strings.Join(only1, ", "))
	}
	if len(only2) > 0 {
		diffs = append(diffs, "Only in second: "+strings.Join(only2, ", "))
	}
	for _, rel := range common {
		if first[rel] != second[rel] {
			diffs = append(diffs, fmt.Sprintf("File size mismatch: %s (first: %s, second: %s)", rel, sizeText(first[rel]), sizeText(second[rel])))
		}
	}
	if len(diffs) == 0 {
		return "Directories are identical.", nil
	}
	return strings.Join(diffs, "\n"), nil
}

func sizeText(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return fmt.Sprint(n)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
