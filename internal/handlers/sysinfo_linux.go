// SPDX-License-Identifier: MPL-2.0

//go:build linux

package handlers

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// unixHost reads host facts through Linux system calls.
type unixHost struct{}

// DefaultHost returns the Host backed by the running kernel.
func DefaultHost() Host { return unixHost{} }

func (unixHost) DeviceInfo() (DeviceInfo, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return DeviceInfo{}, fmt.Errorf("uname: %w", err)
	}
	machine := unix.ByteSliceToString(u.Machine[:])
	return DeviceInfo{
		System:    unix.ByteSliceToString(u.Sysname[:]),
		Node:      unix.ByteSliceToString(u.Nodename[:]),
		Release:   unix.ByteSliceToString(u.Release[:]),
		Version:   unix.ByteSliceToString(u.Version[:]),
		Machine:   machine,
		Processor: runtime.GOARCH,
	}, nil
}

func (unixHost) DiskUsage(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize) //nolint:gosec // block size is never negative
	total := st.Blocks * bsize
	free := st.Bavail * bsize
	return DiskUsage{Total: total, Used: total - st.Bfree*bsize, Free: free}, nil
}

func (unixHost) LoadAverage() ([3]float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return [3]float64{}, fmt.Errorf("sysinfo: %w", err)
	}
	const scale = 1 << unix.SI_LOAD_SHIFT
	return [3]float64{
		float64(info.Loads[0]) / scale,
		float64(info.Loads[1]) / scale,
		float64(info.Loads[2]) / scale,
	}, nil
}

func (unixHost) Memory() (Memory, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return Memory{}, fmt.Errorf("sysinfo: %w", err)
	}
	unit := uint64(info.Unit)
	total := uint64(info.Totalram) * unit
	free := uint64(info.Freeram) * unit
	return Memory{Total: total, Used: total - free, Free: free}, nil
}
