package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/greenhollow/envfetch/pkg/config"
)

// Compares a YAML configuration against a SQLite one section by section,
// which is how a config-convert run gets verified.
func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	mismatches := 0
	mismatches += compareStore(yamlConfig.Store, sqliteConfig.Store)
	mismatches += compareSection("Fetch", yamlConfig.Fetch, sqliteConfig.Fetch)
	mismatches += compareServer(yamlConfig.Server, sqliteConfig.Server)
	mismatches += compareSection("Log", yamlConfig.Log, sqliteConfig.Log)

	if mismatches > 0 {
		fmt.Printf("\nTest completed with %d mismatched sections\n", mismatches)
		os.Exit(1)
	}
	fmt.Println("\nTest completed!")
}

func compareStore(yaml, sqlite config.StoreData) int {
	mismatches := 0

	yamlS3, sqliteS3 := yaml.S3, sqlite.S3
	yaml.S3, sqlite.S3 = nil, nil
	if reflect.DeepEqual(yaml, sqlite) {
		fmt.Println("✓ Store configuration matches")
	} else {
		fmt.Println("✗ Store configuration differs")
		printStoreDiff(yaml, sqlite)
		mismatches++
	}

	if (yamlS3 == nil) != (sqliteS3 == nil) {
		fmt.Println("✗ S3 configuration presence mismatch")
		mismatches++
	} else if yamlS3 != nil {
		if reflect.DeepEqual(*yamlS3, *sqliteS3) {
			fmt.Println("✓ S3 configuration matches")
		} else {
			fmt.Println("✗ S3 configuration differs")
			mismatches++
		}
	} else {
		fmt.Println("✓ S3: both nil")
	}

	return mismatches
}

func printStoreDiff(yaml, sqlite config.StoreData) {
	if yaml.Backend != sqlite.Backend {
		fmt.Printf("  Backend: YAML='%s', SQLite='%s'\n", yaml.Backend, sqlite.Backend)
	}
	if yaml.Host != sqlite.Host {
		fmt.Printf("  Host: YAML='%s', SQLite='%s'\n", yaml.Host, sqlite.Host)
	}
	if yaml.Port != sqlite.Port {
		fmt.Printf("  Port: YAML=%d, SQLite=%d\n", yaml.Port, sqlite.Port)
	}
	if yaml.User != sqlite.User {
		fmt.Printf("  User: YAML='%s', SQLite='%s'\n", yaml.User, sqlite.User)
	}
	if yaml.Directory != sqlite.Directory {
		fmt.Printf("  Directory: YAML='%s', SQLite='%s'\n", yaml.Directory, sqlite.Directory)
	}
	if yaml.TimeoutSeconds != sqlite.TimeoutSeconds {
		fmt.Printf("  TimeoutSeconds: YAML=%d, SQLite=%d\n", yaml.TimeoutSeconds, sqlite.TimeoutSeconds)
	}
}

func compareServer(yaml, sqlite *config.ServerData) int {
	if (yaml == nil) != (sqlite == nil) {
		fmt.Println("✗ Server configuration presence mismatch")
		return 1
	}
	if yaml == nil {
		fmt.Println("✓ Server: both nil")
		return 0
	}
	if reflect.DeepEqual(*yaml, *sqlite) {
		fmt.Println("✓ Server configuration matches")
		return 0
	}
	fmt.Println("✗ Server configuration differs")
	return 1
}

func compareSection(name string, yaml, sqlite interface{}) int {
	if reflect.DeepEqual(yaml, sqlite) {
		fmt.Printf("✓ %s configuration matches\n", name)
		return 0
	}
	fmt.Printf("✗ %s configuration differs\n", name)
	return 1
}
