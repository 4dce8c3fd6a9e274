// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package handlers

import "errors"

var errHostInfoUnsupported = errors.New("host information is not supported on this platform")

type unsupportedHost struct{}

// DefaultHost returns a Host that reports every fact as unavailable.
func DefaultHost() Host { return unsupportedHost{} }

func (unsupportedHost) DeviceInfo() (DeviceInfo, error) {
	return DeviceInfo{}, errHostInfoUnsupported
}

func (unsupportedHost) DiskUsage(string) (DiskUsage, error) {
	return DiskUsage{}, errHostInfoUnsupported
}

func (unsupportedHost) LoadAverage() ([3]float64, error) {
	return [3]float64{}, errHostInfoUnsupported
}

func (unsupportedHost) Memory() (Memory, error) {
	return Memory{}, errHostInfoUnsupported
}
