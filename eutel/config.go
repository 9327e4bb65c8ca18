package main

import (
	"encoding/json"
	"fmt"
	"os"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
)

func defaultConfiguration() eutelescope.Configuration {
	var config eutelescope.Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.Skip = 0
	config.NumWorkers = 1
	config.HotPixelCollection = "hotpixel"
	config.HitCollections = []string{"hit"}
	config.NoDB = true
	config.DBDriver = "mysql"
	config.Host = "localhost"
	config.User = "eutelescope"
	config.Passwd = "readonly"
	config.DBName = "conditions"
	config.UseBlosc = false
	config.CompressionLevel = 4
	return config
}

func LoadConfiguration(filename string) (eutelescope.Configuration, error) {
	config := defaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	if config.NumWorkers < 1 {
		return config, fmt.Errorf("num_workers must be at least 1, got %d", config.NumWorkers)
	}
	return config, nil
}

func printConfiguration(config eutelescope.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Hot pixel collection: %s", config.HotPixelCollection), "config")
	logger.Info(fmt.Sprintf("Noisy pixel collection: %s", config.NoisyPixelCollection), "config")
	logger.Info(fmt.Sprintf("Hit collections: %v", config.HitCollections), "config")
	logger.Info(fmt.Sprintf("Excluded planes: %v of %d", config.ExcludedPlanes, config.NPlanes), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("DB path: %s", config.DBPath), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Metrics address: %s", config.MetricsAddr), "config")
	logger.Info(fmt.Sprintf("Use Blosc: %t", config.UseBlosc), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
