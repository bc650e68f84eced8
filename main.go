// SPDX-License-Identifier: MPL-2.0

package main

import cmd "micropack-cli/cmd/micropack"

func main() {
	cmd.Execute()
}
