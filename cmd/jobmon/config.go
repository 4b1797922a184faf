package main

import (
	"fmt"
	"os"
)

// config is resolved from the environment, with .env support via godotenv;
// flags in main override individual fields.
type config struct {
	SourceKind string
	ExcelPath  string
	DBPath     string
	Watch      bool
}

func loadConfig() (config, error) {
	cfg := config{
		SourceKind: getenv("JOB_SOURCE", "excel"),
		ExcelPath:  getenv("EXCEL_PATH", "sample_data/input.xlsx"),
		DBPath:     getenv("JOB_DB_PATH", "jobs.db"),
	}

	watch, err := parseBool(getenv("WATCH_EXCEL", "true"), "WATCH_EXCEL")
	if err != nil {
		return config{}, err
	}
	cfg.Watch = watch

	return cfg, nil
}

func parseBool(value, name string) (bool, error) {
	switch value {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: %q", name, value)
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
