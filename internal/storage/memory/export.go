package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/slefx/plumectl/internal/storage/memory/export/v1"
)

var nameReplacer = strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")

// exportFileName builds "<flight>_<start>.json", with .gz appended when compressed
func (b *Backend) exportFileName() string {
	name := nameReplacer.Replace(b.flight.Name)
	if name == "" {
		name = "flight"
	}
	filename := fmt.Sprintf("%s_%s.json", name, b.flight.StartTime.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	return filename
}

// exportJSON writes the flight data to a JSON file
func (b *Backend) exportJSON() error {
	export := v1.Build(&v1.FlightData{Flight: b.flight, Parts: b.parts})

	outputPath := filepath.Join(b.cfg.OutputDir, b.exportFileName())

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
