package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"outfit-studio/internal/config"
	domainrepos "outfit-studio/internal/domain/repositories"
	domainservices "outfit-studio/internal/domain/services"
	"outfit-studio/internal/domain/valueobjects"
	"outfit-studio/internal/infrastructure/external"
	infraservices "outfit-studio/internal/infrastructure/services"
)

// images ディレクトリ内の服の写真ごとにコーディネート画像を生成して保存する
func main() {
	inDir := flag.String("in", "images", "directory with clothing photos")
	outDir := flag.String("out", "outfits", "directory to write generated outfits to")
	stylesFlag := flag.String("styles", "", "comma separated styles (default: the initial batch)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	styles, err := parseStyles(*stylesFlag)
	if err != nil {
		log.Fatal(err)
	}

	files, err := listImages(*inDir)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	pool := infraservices.NewClientPoolService(&domainrepos.AIClientConfig{
		ProjectID: cfg.Project,
		Location:  cfg.Location,
		APIKey:    cfg.APIKey,
	})
	defer pool.Close()

	aiService, err := external.NewOutfitAIService(cfg.Backend, pool)
	if err != nil {
		log.Fatal(err)
	}
	service := domainservices.NewOutfitDomainService(aiService, cfg.Model)

	ctx := context.Background()
	failed := 0
	for _, file := range files {
		if err := generate(ctx, service, file, *outDir, styles); err != nil {
			log.Printf("%s: %v", file, err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func parseStyles(value string) ([]valueobjects.Style, error) {
	if value == "" {
		return valueobjects.InitialStyles(), nil
	}

	var styles []valueobjects.Style
	for _, name := range strings.Split(value, ",") {
		style, ok := valueobjects.ParseStyle(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown style %q", name)
		}
		styles = append(styles, style)
	}
	return styles, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	validExtensions := []string{".jpg", ".jpeg", ".png", ".webp"}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(validExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func generate(ctx context.Context, service *domainservices.OutfitDomainService, file, outDir string, styles []valueobjects.Style) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	image, err := valueobjects.NewImageData(data, "")
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	for _, style := range styles {
		outfit, err := service.GenerateOutfit(ctx, image, style)
		if err != nil {
			return err
		}

		path := filepath.Join(outDir, base+"-"+outfit.FileName())
		if err := os.WriteFile(path, outfit.Image().Data(), 0o644); err != nil {
			return err
		}
		log.Printf("saved %s", path)
	}
	return nil
}
