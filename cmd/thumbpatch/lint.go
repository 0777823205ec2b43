package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/thumbpatch/tools"
)

func runLint(args []string) error {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a thumbpatch.toml run configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	patchPaths := fs.Args()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// Lint never resolves an original image's content, only the symbols
	// and masks a patch file declares, so an empty binary stands in for
	// the firmware image.
	patch, err := loadPatches(patchPaths, []byte{}, cfg.Defines)
	if err != nil {
		return err
	}

	issues := tools.Lint(patch)
	errorCount := 0
	for _, issue := range issues {
		fmt.Println(issue)
		if issue.Level == tools.LintError {
			errorCount++
		}
	}
	if errorCount > 0 {
		os.Exit(1)
	}
	return nil
}
