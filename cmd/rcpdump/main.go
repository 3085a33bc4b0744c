// Command rcpdump converts a Recomposer RCP v2/v3 sequence (optionally
// with its linked CM6/GSD control files) into a Standard MIDI File. It is
// a thin caller of the public libmidi/recomposer API; no decoding logic
// lives here, per spec.md §1's "deliberately out of scope" and
// DESIGN.md's cmd/ grounding note.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/zurustar/libmidi/pkg/decoder/recomposer"
)

func main() {
	out := flag.String("o", "", "output .mid path (default: input with .mid extension)")
	loopCount := flag.Int("loop-count", 2, "times an infinite (0xF9/0xF8 count 0) loop plays")
	wolfteam := flag.Bool("wolfteam", false, "treat the end of bar 1 as an implicit loop begin")
	balance := flag.Bool("balance", true, "extend short tracks' loop counts to match the longest track")
	cm6 := flag.String("cm6", "", "path to a linked CM6 control file")
	gsd1 := flag.String("gsd1", "", "path to a linked GSD control file (first slot)")
	gsd2 := flag.String("gsd2", "", "path to a linked GSD control file (second slot)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rcpdump [-o out.mid] [-loop-count N] [-wolfteam] <input.rcp>")
		os.Exit(1)
	}

	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("rcpdump: reading %s: %v", path, err)
	}

	opts := recomposer.DefaultOptions()
	opts.LoopCount = *loopCount
	opts.BalanceTrackLengths = *balance
	opts.Wolfteam = *wolfteam
	opts.LinkedFiles = readLinkedFiles(*cm6, *gsd1, *gsd2)

	c, err := recomposer.Decode(raw, opts)
	if err != nil {
		log.Fatalf("rcpdump: decoding %s: %v", path, err)
	}

	outPath := *out
	if outPath == "" {
		ext := filepath.Ext(path)
		outPath = path[:len(path)-len(ext)] + ".mid"
	}

	if err := os.WriteFile(outPath, c.SerializeAsSMF(), 0o644); err != nil {
		log.Fatalf("rcpdump: writing %s: %v", outPath, err)
	}
	fmt.Printf("wrote %s\n", outPath)
}

// readLinkedFiles reads the optional companion control files the caller
// named on the command line into the map recomposer.Options.LinkedFiles
// expects, keyed by base filename the way the RCP header's linked-filename
// fields name them.
func readLinkedFiles(paths ...string) map[string][]byte {
	files := make(map[string][]byte)
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("rcpdump: warning: could not read linked file %s: %v", p, err)
			continue
		}
		files[filepath.Base(p)] = data
	}
	return files
}
