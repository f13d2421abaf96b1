package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slefx/plumectl/internal/config"
	"github.com/slefx/plumectl/internal/database"
	"github.com/slefx/plumectl/internal/logging"
	"github.com/slefx/plumectl/internal/model"
	"github.com/slefx/plumectl/internal/storage/memory"
	"gorm.io/gorm"
)

// exportBatchSize is the number of sample rows loaded per query.
const exportBatchSize = 5000

// runExport writes the JSON export of recorded flights. The source is a
// SQLite dump file or the word "postgres" for the configured server.
func runExport(args []string) error {
	configDir := "."
	var rest []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configDir = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	if len(rest) < 3 {
		return fmt.Errorf("export needs a source, an output dir and at least one flight ID\n%s", usage)
	}

	ids, err := parseFlightIDs(rest[2:])
	if err != nil {
		return err
	}

	zl := logging.NewZerolog(nil, "info", true)
	if err := config.Load(configDir); err != nil {
		zl.Warn().Err(err).Msg("Failed to load config, using defaults")
	}

	var db *gorm.DB
	if strings.EqualFold(rest[0], "postgres") {
		db, err = database.GetPostgresDB(config.GetDBConfig())
	} else {
		if _, statErr := os.Stat(rest[0]); statErr != nil {
			return fmt.Errorf("sqlite file: %w", statErr)
		}
		db, err = database.GetSqliteDB(rest[0])
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	paths, err := exportFlights(db, zl, memoryExportConfig(rest[1]), ids)
	for _, p := range paths {
		fmt.Println(p)
	}
	return err
}

func memoryExportConfig(outDir string) config.MemoryConfig {
	return config.MemoryConfig{
		OutputDir:      outDir,
		CompressOutput: config.GetStorageConfig().Memory.CompressOutput,
	}
}

func parseFlightIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid flight ID %q: %w", a, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// exportFlights loads each flight and its samples and replays them through a
// memory backend, which writes the export file. It returns the written paths.
func exportFlights(db *gorm.DB, log zerolog.Logger, cfg config.MemoryConfig, ids []uint) ([]string, error) {
	var paths []string
	for _, id := range ids {
		txStart := time.Now()
		path, n, err := exportFlight(db, cfg, id)
		if err != nil {
			return paths, fmt.Errorf("flight %d: %w", id, err)
		}
		log.Info().Uint("flight", id).Int("samples", n).Dur("took", time.Since(txStart)).Str("path", path).Msg("Exported flight")
		paths = append(paths, path)
	}
	return paths, nil
}

func exportFlight(db *gorm.DB, cfg config.MemoryConfig, id uint) (string, int, error) {
	var row model.Flight
	if err := db.Model(&model.Flight{}).Where("id = ?", id).First(&row).Error; err != nil {
		return "", 0, fmt.Errorf("error getting flight: %w", err)
	}

	flight := row.ToCore()
	backend := memory.New(cfg)
	if err := backend.StartFlight(&flight); err != nil {
		return "", 0, err
	}

	count := 0
	var batch []model.Sample
	err := db.Model(&model.Sample{}).
		Where("flight_id = ?", id).
		FindInBatches(&batch, exportBatchSize, func(tx *gorm.DB, _ int) error {
			for _, r := range batch {
				s, err := r.ToCore()
				if err != nil {
					return fmt.Errorf("sample %d: %w", r.ID, err)
				}
				if err := backend.RecordSample(&s); err != nil {
					return err
				}
				count++
			}
			return nil
		}).Error
	if err != nil {
		return "", count, fmt.Errorf("error getting samples: %w", err)
	}

	if err := backend.EndFlight(); err != nil {
		return "", count, err
	}
	return backend.ExportedFilePath(), count, nil
}
