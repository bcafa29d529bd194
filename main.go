package main

import (
	"os"

	"github.com/ziadkadry99/chatshell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
