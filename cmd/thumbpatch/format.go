package main

import (
	"flag"
	"fmt"

	"github.com/lookbusy1344/thumbpatch/tools"
)

func runFormat(args []string) error {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a thumbpatch.toml run configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	patchPaths := fs.Args()
	if len(patchPaths) != 1 {
		return fmt.Errorf("format takes exactly one patch file")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	patch, err := loadPatches(patchPaths, []byte{}, cfg.Defines)
	if err != nil {
		return err
	}

	fmt.Print(tools.Format(patch, tools.DefaultFormatOptions()))
	return nil
}
