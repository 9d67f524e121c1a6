package main

import (
	"github.com/lush-shell/lush/cmd"
)

var version = "v0.3.0"

func main() {
	cmd.Execute(version)
}
