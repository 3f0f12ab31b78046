package main

import (
	"github.com/webpilot-ai/webpilot/cmd"
)

func main() {
	cmd.Execute()
}
