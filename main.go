package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}
