package main

import (
	"flag"
	"fmt"

	"github.com/lookbusy1344/thumbpatch/config"
	"github.com/lookbusy1344/thumbpatch/firmware"
	"github.com/lookbusy1344/thumbpatch/patchfile"
)

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	firmwarePath := fs.String("firmware", "", "path to the firmware image to patch")
	outPath := fs.String("o", "", "path to write the patched firmware image")
	configPath := fs.String("config", "", "path to a thumbpatch.toml run configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	patchPaths := fs.Args()

	if *firmwarePath == "" || *outPath == "" {
		return fmt.Errorf("apply requires -firmware and -o")
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
	out, err := app.Apply(cfg.Patch.IgnoreLength)
	if err != nil {
		return err
	}

	return firmware.Save(*outPath, out)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFrom(path)
}
