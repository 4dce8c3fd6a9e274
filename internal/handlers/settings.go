// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"bufio"
	"context"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/session"
)

// fallbackUsers is reported when the host user database cannot be read.
var fallbackUsers = []string{"root", "guest", "user"}

func (b *Builtins) settingsCommands() []command {
	return []command{
		{"list_users", exactArgs(0, "usage: list_users", b.listUsers), "List the names of users on the host system. Usage: list_users"},
		{"list_library_paths", exactArgs(0, "usage: list_library_paths", listLibraryPaths), "List the configured library paths. Usage: list_library_paths"},
		{"add_library_path", exactArgs(1, "usage: add_library_path <path>", addLibraryPath), "Add a directory to the library path list. Usage: add_library_path <path>"},
		{"delete_library_path", exactArgs(1, "usage: delete_library_path <path>", deleteLibraryPath), "Remove a directory from the library path list. Usage: delete_library_path <path>"},
		{"set_language", exactArgs(1, "usage: set_language <language_code>", setLanguage), "Set the current language. Usage: set_language <language_code>"},
		{"set_time_zone", exactArgs(1, "usage: set_time_zone <time_zone>", setTimeZone), "Set the current time zone. Usage: set_time_zone <time_zone>"},
		{"set_line_wrap_width", exactArgs(1, "usage: set_line_wrap_width <number>", setLineWrapWidth), "Set line wrapping width for display commands. Usage: set_line_wrap_width <number>"},
		{"profile", maxArgs(1, "usage: profile [name]", profile), "Show or set the current profile. Usage: profile [name]"},
		{"add_profile", exactArgs(1, "usage: add_profile <name>", addProfile), "Add a new profile entry. Usage: add_profile <name>"},
	}
}

func (b *Builtins) listUsers(context.Context, *session.Session, []string) (string, error) {
	f, err := os.Open(b.PasswdPath)
	if err != nil {
		return strings.Join(fallbackUsers, "\n"), nil
	}
	defer func() { _ = f.Close() }() // read-only handle

	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		seen[name] = struct{}{}
	}
	if sc.Err() != nil {
		return strings.Join(fallbackUsers, "\n"), nil
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	slices.Sort(users)
	return strings.Join(users, "\n"), nil
}

func listLibraryPaths(_ context.Context, sess *session.Session, _ []string) (string, error) {
	paths := sess.LibraryPaths()
	if len(paths) == 0 {
		return "(no library paths configured)", nil
	}
	return strings.Join(paths, "\n"), nil
}

func addLibraryPath(_ context.Context, sess *session.Session, args []string) (string, error) {
	if sess.AddLibraryPath(args[0]) {
		return ok("added library path: " + args[0]), nil
	}
	return ok("library path already present: " + args[0]), nil
}

func deleteLibraryPath(_ context.Context, sess *session.Session, args []string) (string, error) {
	if !sess.DeleteLibraryPath(args[0]) {
		return "", issue.Usagef("library path not found: %s", args[0])
	}
	return ok("removed library path: " + args[0]), nil
}

func setLanguage(_ context.Context, sess *session.Session, args []string) (string, error) {
	sess.SetLanguage(args[0])
	return ok("language set to " + args[0]), nil
}

func setTimeZone(_ context.Context, sess *session.Session, args []string) (string, error) {
	sess.SetTimeZone(args[0])
	return ok("time zone set to " + args[0]), nil
}

func setLineWrapWidth(_ context.Context, sess *session.Session, args []string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return "", issue.Usagef("set_line_wrap_width: invalid number")
	}
	if err := sess.SetLineWrapWidth(n); err != nil {
		return "", issue.Usagef("line wrap width must be positive")
	}
	return ok("line wrap width set to " + strconv.Itoa(n)), nil
}

func profile(_ context.Context, sess *session.Session, args []string) (string, error) {
	if len(args) == 0 {
		return "Current profile: " + sess.Profile(), nil
	}
	sess.SetProfile(args[0])
	return ok("profile set to " + args[0]), nil
}

func addProfile(_ context.Context, sess *session.Session, args []string) (string, error) {
	if !sess.AddProfile(args[0]) {
		return ok("profile already exists: " + args[0]), nil
	}
	return ok("added profile: " + args[0]), nil
}
