package main

import (
	"flag"
	"fmt"

	"github.com/lookbusy1344/thumbpatch/firmware"
	"github.com/lookbusy1344/thumbpatch/inspector"
	"github.com/lookbusy1344/thumbpatch/patchfile"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	firmwarePath := fs.String("firmware", "", "path to the firmware image to inspect against")
	configPath := fs.String("config", "", "path to a thumbpatch.toml run configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	patchPaths := fs.Args()

	if *firmwarePath == "" {
		return fmt.Errorf("inspect requires -firmware")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	codebase, err := cfg.Codebase()
	if err != nil {
		return err
	}

	img, err := firmware.Load(*firmwarePath, codebase)
	if err != nil {
		return err
	}

	patch, err := loadPatches(patchPaths, img.Bytes, cfg.Defines)
	if err != nil {
		return err
	}

	ranges, err := buildRanges(cfg, img.Bytes)
	if err != nil {
		return err
	}

	app := patchfile.NewApplicator(patch, codebase, ranges)
	if err := app.BindAll(); err != nil {
		return fmt.Errorf("cannot inspect: %w", err)
	}

	insp := inspector.New(app, nil)
	return insp.Run()
}
