// Command mididump reads a legacy music sequence file and prints a
// summary of the Container libmidi decodes it into, or re-emits it as a
// Standard MIDI File. It is a thin caller of the public libmidi API; no
// decoding logic lives here, per spec.md §1's "deliberately out of scope"
// and DESIGN.md's cmd/ grounding note.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zurustar/libmidi/pkg/container"
	"github.com/zurustar/libmidi/pkg/libmidi"
)

func main() {
	smfOut := flag.String("smf", "", "write re-serialized SMF bytes to this path instead of printing a summary")
	subsong := flag.Int("subsong", 0, "subsong index to summarize (format 2 files only)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mididump [-smf out.mid] [-subsong N] <input>")
		os.Exit(1)
	}

	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("mididump: reading %s: %v", path, err)
	}

	c, err := libmidi.Decode(raw, path, libmidi.NewOptions())
	if err != nil {
		log.Fatalf("mididump: decoding %s: %v", path, err)
	}

	if *smfOut != "" {
		if err := os.WriteFile(*smfOut, c.SerializeAsSMF(), 0o644); err != nil {
			log.Fatalf("mididump: writing %s: %v", *smfOut, err)
		}
		fmt.Printf("wrote %s\n", *smfOut)
		return
	}

	printSummary(c, *subsong)
}

func printSummary(c *container.Container, subsong int) {
	fmt.Printf("format: %d\n", c.Format)
	fmt.Printf("tracks: %d\n", len(c.Tracks))
	fmt.Printf("subsongs: %d\n", c.SubsongCount())

	if subsong < 0 || subsong >= c.SubsongCount() {
		return
	}

	fmt.Printf("subsong %d:\n", subsong)
	fmt.Printf("  channels: %d\n", c.ChannelCount(subsong))
	fmt.Printf("  duration: %d ticks / %.1f ms\n", c.DurationTicks(subsong), c.DurationMs(subsong))
	if begin, ok := c.LoopBeginMs(subsong); ok {
		fmt.Printf("  loop begin: %.1f ms\n", begin)
	}
	if end, ok := c.LoopEndMs(subsong); ok {
		fmt.Printf("  loop end: %.1f ms\n", end)
	}

	meta := c.ExtractMetadata(subsong)
	fmt.Printf("  device kind: %s\n", meta.Kind)
	for _, t := range meta.Text {
		fmt.Printf("  text: %s\n", t)
	}
	for _, cp := range meta.Copyright {
		fmt.Printf("  copyright: %s\n", cp)
	}
	if meta.BadChecksum {
		fmt.Println("  warning: a Roland SysEx checksum mismatch was observed")
	}
}
