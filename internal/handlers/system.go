// SPDX-License-Identifier: MPL-2.0

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vosemu/vosemu/internal/session"
)

type (
	// Host reports facts about the machine the emulator runs on.
	Host interface {
		DeviceInfo() (DeviceInfo, error)
		DiskUsage(path string) (DiskUsage, error)
		LoadAverage() ([3]float64, error)
		Memory() (Memory, error)
	}

	// DeviceInfo mirrors the fields of uname(2).
	DeviceInfo struct {
		System    string
		Node      string
		Release   string
		Version   string
		Machine   string
		Processor string
	}

	// DiskUsage is the capacity of the filesystem holding a path, in bytes.
	DiskUsage struct {
		Total uint64
		Used  uint64
		Free  uint64
	}

	// Memory is the host's physical memory, in bytes.
	Memory struct {
		Total uint64
		Used  uint64
		Free  uint64
	}
)

// String renders the usage as three labelled lines.
func (u DiskUsage) String() string {
	return fmt.Sprintf("Total: %s\nUsed: %s\nFree: %s",
		formatBytes(float64(u.Total)), formatBytes(float64(u.Used)), formatBytes(float64(u.Free)))
}

func (b *Builtins) systemCommands() []command {
	return []command{
		{"display_device_info", exactArgs(0, "usage: display_device_info", b.displayDeviceInfo), "Display host device/system information. Usage: display_device_info"},
		{"display_disk_info", exactArgs(0, "usage: display_disk_info", b.displayDiskInfo), "Display disk usage for the root filesystem. Usage: display_disk_info"},
		{"display_system_usage", exactArgs(0, "usage: display_system_usage", b.displaySystemUsage), "Display load average and memory usage. Usage: display_system_usage"},
		{"display_error", exactArgs(0, "usage: display_error", displayError), "Display the last error message recorded by the shell. Usage: display_error"},
		{"display_notices", exactArgs(0, "usage: display_notices", displayNotices), "Display queued notices. Usage: display_notices"},
		{"display_terminal_parameters", exactArgs(0, "usage: display_terminal_parameters", displayTerminalParameters), "Display the terminal size. Usage: display_terminal_parameters"},
		{"show state_dir", exactArgs(0, "usage: show state_dir", b.showStateDir), "Show the current emulator state directory. Usage: show state_dir"},
	}
}

func (b *Builtins) displayDeviceInfo(context.Context, *session.Session, []string) (string, error) {
	info, err := b.Host.DeviceInfo()
	if err != nil {
		return "Device information not available", nil
	}
	return fmt.Sprintf("System: %s\nNode: %s\nRelease: %s\nVersion: %s\nMachine: %s\nProcessor: %s",
		info.System, info.Node, info.Release, info.Version, info.Machine, info.Processor), nil
}

func (b *Builtins) displayDiskInfo(context.Context, *session.Session, []string) (string, error) {
	usage, err := b.Host.DiskUsage("/")
	if err != nil {
		return "Disk information not available", nil
	}
	return "Filesystem: /\n" + usage.String(), nil
}

func (b *Builtins) displaySystemUsage(context.Context, *session.Session, []string) (string, error) {
	var lines []string
	if load, err := b.Host.LoadAverage(); err == nil {
		lines = append(lines, fmt.Sprintf("Load average (1m,5m,15m): %.2f, %.2f, %.2f", load[0], load[1], load[2]))
	} else {
		lines = append(lines, "Load average: not available")
	}
	if mem, err := b.Host.Memory(); err == nil {
		lines = append(lines,
			"Memory total: "+formatBytes(float64(mem.Total)),
			"Memory used: "+formatBytes(float64(mem.Used)),
			"Memory free: "+formatBytes(float64(mem.Free)))
	} else {
		lines = append(lines, "Memory usage: not available")
	}
	return strings.Join(lines, "\n"), nil
}

func displayError(_ context.Context, sess *session.Session, _ []string) (string, error) {
	if msg, ok := sess.LastError(); ok {
		return "Last error: " + msg, nil
	}
	return "No errors.", nil
}

func displayNotices(_ context.Context, sess *session.Session, _ []string) (string, error) {
	notices := sess.DrainNotices()
	if len(notices) == 0 {
		return "(no notices)", nil
	}
	return strings.Join(notices, "\n"), nil
}

func displayTerminalParameters(_ context.Context, sess *session.Session, _ []string) (string, error) {
	term := sess.Terminal()
	if term == nil {
		return "Terminal parameters not available", nil
	}
	cols, lines, err := term.Size()
	if err != nil {
		return "Terminal parameters not available", nil
	}
	return fmt.Sprintf("Columns: %d\nLines: %d", cols, lines), nil
}

func (b *Builtins) showStateDir(context.Context, *session.Session, []string) (string, error) {
	return "Current state directory: " + b.StateDir, nil
}
