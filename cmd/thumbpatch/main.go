// Command thumbpatch applies, lints, formats, cross-references and
// inspects THUMB patch files against a firmware image. Grounded on the
// teacher's root main.go: a flat flag.* surface, ldflags-overridable
// Version/Commit/Date vars, and positional-argument subcommand dispatch
// via flag.Arg(0).
package main

import (
	"fmt"
	"os"

	"github.com/lookbusy1344/thumbpatch/config"
	"github.com/lookbusy1344/thumbpatch/parser"
	"github.com/lookbusy1344/thumbpatch/patchfile"

	_ "github.com/lookbusy1344/thumbpatch/encoder"
)

// Version, Commit and Date are overridden at build time via
// -ldflags "-X main.Version=... -X main.Commit=... -X main.Date=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-version", "--version":
		printVersion()
		return
	case "-help", "--help":
		usage()
		return
	}

	cmd := os.Args[1]
	rest := os.Args[2:]

	var err error
	switch cmd {
	case "apply":
		err = runApply(rest)
	case "lint":
		err = runLint(rest)
	case "format":
		err = runFormat(rest)
	case "xref":
		err = runXRef(rest)
	case "inspect":
		err = runInspect(rest)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "thumbpatch: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("thumbpatch %s (commit %s, built %s)\n", Version, Commit, Date)
}

func usage() {
	fmt.Fprint(os.Stderr, `usage:
  thumbpatch apply    -firmware fw.bin -o out.bin [-config thumbpatch.toml] patch1.pat [patch2.pat ...]
  thumbpatch lint     patch1.pat [...]
  thumbpatch format   patch1.pat
  thumbpatch xref     patch1.pat [...]
  thumbpatch inspect  -firmware fw.bin patch1.pat [...]
  thumbpatch -version
  thumbpatch -help
`)
}

// loadPatches parses each named patch file against binary into one
// library patch: the first file becomes the top-level Patch, and every
// subsequent file's blocks are merged into it as if each had been
// reached via #include, so lint/xref/apply see one combined symbol
// scope across all patch files named on the command line.
func loadPatches(paths []string, binary []byte, defines map[string]string) (*patchfile.Patch, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one patch file is required")
	}
	top, err := parser.ParsePatchWithDefines(paths[0], binary, defines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", paths[0], err)
	}
	for _, p := range paths[1:] {
		extra, err := parser.ParsePatchWithDefines(p, binary, defines)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		for _, b := range extra.Blocks {
			b.Patch = top
			top.AddBlock(b)
		}
	}
	return top, nil
}

func buildRanges(cfg *config.Config, binary []byte) (*patchfile.Ranges, error) {
	ranges := patchfile.NewRanges()
	for _, fr := range cfg.Patch.FreeRange {
		from, err := config.ParseUint32(fr.Start)
		if err != nil {
			return nil, err
		}
		to, err := config.ParseUint32(fr.End)
		if err != nil {
			return nil, err
		}
		ranges.Add(int(from), int(to))
	}
	if cfg.Patch.MaxBinarySize > 0 {
		ranges.AddEOF(binary, int(cfg.Patch.MaxBinarySize), int(cfg.Patch.RetainTail))
	}
	return ranges, nil
}
