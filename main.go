package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"predsheet/pkg/config"
	"predsheet/pkg/ocr"
	"predsheet/pkg/predictions"

	"github.com/gin-gonic/gin"
)

var (
	cfg        *config.Config
	store      conversionStore
	recognizer ocr.Recognizer
	parser     *predictions.Parser
)

func main() {
	// Auto-load ./.env if present before reading vars
	loadDotEnv()
	configPath := flag.String("config", os.Getenv("PREDSHEET_CONFIG"), "optional YAML config file")
	flag.Parse()

	var err error
	cfg, err = config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// `./predsheet migrate` runs AutoMigrate then exits.
	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		initDB()
		fmt.Println("migration completed")
		return
	}

	initDB()
	store = gormStore{db: db}
	recognizer = ocr.NewTesseractRecognizer()
	parser = predictions.NewParser(cfg.Parser.LeagueKeywords)

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	setupRoutes(r)

	log.Printf("listening on %s (uploads in %s)", cfg.Addr, uploadBaseDir())
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.Trim(strings.TrimSpace(line[eq+1:]), `"'`)
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
