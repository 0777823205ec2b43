package main

import (
	"flag"
	"fmt"

	"github.com/lookbusy1344/thumbpatch/tools"
)

func runXRef(args []string) error {
	fs := flag.NewFlagSet("xref", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a thumbpatch.toml run configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	patchPaths := fs.Args()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	patch, err := loadPatches(patchPaths, []byte{}, cfg.Defines)
	if err != nil {
		return err
	}

	fmt.Print(tools.XRef(patch).String())
	return nil
}
