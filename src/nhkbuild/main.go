package main

import "github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/cmd"

func main() {
	cmd.Execute()
}
