package main

import (
	"os"

	"github.com/fbroman/chainy/commandline"
)

func main() {
	if err := commandline.New().Execute(); err != nil {
		os.Exit(1)
	}
}
