// Command benchmark scores each annotator folder of an export against a
// ground truth folder and writes the per-instance scores as CSV, with
// optional chart output and sqlite persistence.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/annolab-data/consensus.report/internal/consensus"
	"github.com/annolab-data/consensus.report/internal/report"
	"github.com/annolab-data/consensus.report/internal/storage/sqlite"
	"github.com/annolab-data/consensus.report/internal/table"
)

func main() {
	var root string
	var out string
	var gtFolder string
	var folders string
	var images string
	var annotType string
	var workers int
	var plotsDir string
	var dbPath string

	flag.StringVar(&root, "root", "", "path to the export root directory")
	flag.StringVar(&out, "out", "", "output CSV path (defaults to stdout)")
	flag.StringVar(&gtFolder, "gt", "", "ground truth folder name")
	flag.StringVar(&folders, "folders", "", "comma separated candidate folder names (defaults to all)")
	flag.StringVar(&images, "images", "", "comma separated image names (defaults to all)")
	flag.StringVar(&annotType, "type", "bbox", "annotation type to score (bbox, polygon, point)")
	flag.IntVar(&workers, "workers", 0, "number of scoring workers (defaults to GOMAXPROCS)")
	flag.StringVar(&plotsDir, "plots", "", "write score charts into this directory")
	flag.StringVar(&dbPath, "db", "", "persist the run into this sqlite database")
	flag.Parse()

	if root == "" {
		log.Fatal("root directory is required")
	}
	if gtFolder == "" {
		log.Fatal("ground truth folder is required")
	}

	opts := consensus.BenchmarkOptions{
		GroundTruthFolder: gtFolder,
		AnnotationType:    table.InstanceType(annotType),
		Workers:           workers,
	}
	if folders != "" {
		opts.FolderNames = strings.Split(folders, ",")
	}
	if images != "" {
		opts.Images = strings.Split(images, ",")
	}

	rows, err := consensus.Benchmark(root, opts)
	if err != nil {
		log.Fatalf("failed to compute benchmark: %v", err)
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := consensus.WriteScoresCSV(w, rows); err != nil {
		log.Fatalf("failed to write scores: %v", err)
	}
	log.Printf("scored %d instances", len(rows))

	if plotsDir != "" {
		if err := report.WritePlots(plotsDir, rows); err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
	}

	if dbPath != "" {
		store, err := sqlite.Open(dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		runID, err := store.InsertRun(&sqlite.Run{
			Kind:           "benchmark",
			ExportRoot:     root,
			AnnotationType: annotType,
			Folders:        folders,
		}, rows)
		if err != nil {
			log.Fatalf("failed to persist run: %v", err)
		}
		log.Printf("persisted run %s", runID)
	}
}
