// SPDX-License-Identifier: MIT

package main

import cmd "forgeci/cmd/forgeci"

func main() {
	cmd.Execute()
}
