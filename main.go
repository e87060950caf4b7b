package main

import (
	"os"

	"github.com/tanpawarit/chative-support/cmd"
	_ "github.com/tanpawarit/chative-support/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
