package main

import "github.com/LENAX/capability-tree/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
