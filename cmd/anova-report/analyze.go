package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/banshee-data/anova.report/internal/anova"
	"github.com/banshee-data/anova.report/internal/chart"
	"github.com/banshee-data/anova.report/internal/dataset"
	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/fsutil"
	"github.com/banshee-data/anova.report/internal/security"
)

// readDataset loads and decodes a dataset file. An empty file or array is
// reported as anova.ErrEmptyInput.
func readDataset(fsys fsutil.FileSystem, path string) (anova.Dataset, error) {
	if !fsys.Exists(path) {
		return nil, fmt.Errorf("dataset file %s does not exist", path)
	}
	raw, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data, err := dataset.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, anova.ErrEmptyInput)
	}
	return data, nil
}

// runAnalyze implements 'anova-report analyze'. The result is printed as
// indented JSON; -plot also writes a PNG and -save stores the dataset in
// the database at dbPath.
func runAnalyze(args []string, dbPath string, fsys fsutil.FileSystem, out io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(out)
	corrected := fs.Bool("corrected", false, "Use dfWithin as the homogeneity denominator df")
	significance := fs.Float64("significance", anova.DefaultSignificance, "Significance level for critical values")
	plotPath := fs.String("plot", "", "Write a PNG plot of the observations to this path")
	saveName := fs.String("save", "", "Store the dataset in the database under this name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: anova-report analyze [-corrected] [-significance A] [-plot out.png] [-save NAME] <file.json>", errUsage)
	}
	if *significance <= 0 || *significance >= 1 {
		return fmt.Errorf("%w: significance must be between 0 and 1, got %v", errUsage, *significance)
	}
	if *plotPath != "" {
		if err := security.ValidateOutputPath(*plotPath); err != nil {
			return fmt.Errorf("plot path: %w", err)
		}
	}

	data, err := readDataset(fsys, fs.Arg(0))
	if err != nil {
		return err
	}

	mode := anova.HomogeneityCompat
	if *corrected {
		mode = anova.HomogeneityCorrected
	}
	engine := anova.NewEngine(nil, anova.WithSignificance(*significance), anova.WithHomogeneityMode(mode))
	res, err := engine.Run(data)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if *plotPath != "" {
		if err := writePlot(fsys, *plotPath, data, res); err != nil {
			return err
		}
		log.Printf("wrote plot to %s", *plotPath)
	}

	if *saveName != "" {
		if err := saveDataset(dbPath, *saveName, data); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writePlot(fsys fsutil.FileSystem, path string, data anova.Dataset, res *anova.Result) error {
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := chart.WritePNG(w, data, res, chart.DefaultWidth, chart.DefaultHeight); err != nil {
		w.Close()
		return fmt.Errorf("failed to draw plot: %w", err)
	}
	return w.Close()
}

func saveDataset(dbPath, name string, data anova.Dataset) error {
	store, err := db.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	info, err := store.CreateDataset(context.Background(), name, db.SourceCLI, data)
	if err != nil {
		return err
	}
	log.Printf("stored dataset %s (%s, %d observations)", info.DatasetID, info.Name, info.ObservationCount)
	return nil
}
