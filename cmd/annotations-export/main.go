// Command annotations-export turns an aggregated CSV back into per-image
// annotation files plus a reconstructed classes file.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/annolab-data/consensus.report/internal/annotation"
	"github.com/annolab-data/consensus.report/internal/fsutil"
	"github.com/annolab-data/consensus.report/internal/table"
)

func main() {
	var in string
	var outDir string

	flag.StringVar(&in, "in", "", "aggregated CSV path (defaults to stdin)")
	flag.StringVar(&outDir, "out", "", "output directory for annotation files")
	flag.Parse()

	if outDir == "" {
		log.Fatal("output directory is required")
	}

	r := os.Stdin
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			log.Fatalf("failed to open input file: %v", err)
		}
		defer f.Close()
		r = f
	}

	t, err := table.ReadCSV(r)
	if err != nil {
		log.Fatalf("failed to read CSV: %v", err)
	}

	if err := annotation.WriteAnnotations(fsutil.OSFileSystem{}, t, outDir); err != nil {
		log.Fatalf("failed to write annotations: %v", err)
	}
	log.Printf("wrote annotations for %d images to %s", len(t.Images()), outDir)
}
