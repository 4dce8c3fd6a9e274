// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/vosemu/vosemu/cmd/vosemu"

func main() {
	cmd.Execute()
}
