// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/ts-precompile/ts-precompile/cmd/tsprecompile"

func main() {
	cmd.Execute()
}
