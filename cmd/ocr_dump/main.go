package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"predsheet/pkg/config"
	"predsheet/pkg/ocr"
	"predsheet/pkg/predictions"

	"github.com/disintegration/imaging"
)

func main() {
	path := flag.String("path", "", "image path")
	configPath := flag.String("config", os.Getenv("PREDSHEET_CONFIG"), "optional YAML config file")
	saveNorm := flag.String("save-normalized", "", "write the normalized image to this file")
	flag.Parse()
	if *path == "" {
		log.Fatal("--path is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	gray, err := ocr.NormalizeBytes(data, cfg.OCR.AutocontrastCutoff)
	if err != nil {
		log.Fatalf("normalize: %v", err)
	}
	if *saveNorm != "" {
		if err := imaging.Save(gray, *saveNorm); err != nil {
			log.Fatalf("save normalized: %v", err)
		}
	}
	text, err := ocr.NewTesseractRecognizer().Recognize(context.Background(), gray)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	fmt.Println(text)
	fmt.Println(strings.Repeat("-", 50))

	p := predictions.NewParser(cfg.Parser.LeagueKeywords)
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			fmt.Printf("%-8s %s\n", p.Classify(ln).Kind, ln)
		}
	}
	fmt.Println(strings.Repeat("-", 50))
	out, _ := json.MarshalIndent(p.Parse(text), "", "  ")
	fmt.Println(string(out))
}
