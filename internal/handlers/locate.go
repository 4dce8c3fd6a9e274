// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/session"
)

const noMatches = "(no matches)"

func (b *Builtins) locateCommands() []command {
	return []command{
		{"locate_files", exactArgs(1, "usage: locate_files <pattern>", locateFiles), "Search the sandbox for files whose name contains the pattern (case-insensitive). Usage: locate_files <pattern>"},
		{"locate_large_files", exactArgs(1, "usage: locate_large_files <min_size>", locateLargeFiles), "Find files larger than the given size (e.g. 10M, 512K). Usage: locate_large_files <min_size>"},
		{"locate_large_dirs", exactArgs(1, "usage: locate_large_dirs <min_size>", locateLargeDirs), "Find directories whose total size exceeds the given size. Usage: locate_large_dirs <min_size>"},
	}
}

// parseSize reads sizes such as "512", "10K", "1.5M" or "2g" using
// powers of 1024.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := 1.0
	if s != "" {
		switch s[len(s)-1] {
		case 'K':
			mult = 1 << 10
		case 'M':
			mult = 1 << 20
		case 'G':
			mult = 1 << 30
		case 'T':
			mult = 1 << 40
		}
		if mult != 1 {
			s = s[:len(s)-1]
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	v := n * mult
	if v >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(v), nil
}

func locateFiles(_ context.Context, sess *session.Session, args []string) (string, error) {
	root := sess.Root()
	needle := strings.ToLower(args[0])
	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.Contains(strings.ToLower(d.Name()), needle) {
			matches = append(matches, relTo(root, path))
		}
		return nil
	})
	if len(matches) == 0 {
		return noMatches, nil
	}
	return strings.Join(matches, "\n"), nil
}

func locateLargeFiles(_ context.Context, sess *session.Session, args []string) (string, error) {
	limit, err := parseSize(args[0])
	if err != nil {
		return "", issue.Usagef("locate_large_files: invalid size")
	}
	root := sess.Root()
	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > limit {
			matches = append(matches, fmt.Sprintf("%s (%d bytes)", relTo(root, path), info.Size()))
		}
		return nil
	})
	if len(matches) == 0 {
		return noMatches, nil
	}
	return strings.Join(matches, "\n"), nil
}

func locateLargeDirs(_ context.Context, sess *session.Session, args []string) (string, error) {
	limit, err := parseSize(args[0])
	if err != nil {
		return "", issue.Usagef("locate_large_dirs: invalid size")
	}
	root := sess.Root()
	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		var total int64
		_ = filepath.WalkDir(path, func(_ string, e fs.DirEntry, err error) error {
			if err != nil || e.IsDir() {
				return nil
			}
			if info, err := e.Info(); err == nil {
				total += info.Size()
			}
			return nil
		})
		if total > limit {
			matches = append(matches, fmt.Sprintf("%s (%d bytes)", relTo(root, path), total))
		}
		return nil
	})
	if len(matches) == 0 {
		return noMatches, nil
	}
	return strings.Join(matches, "\n"), nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
