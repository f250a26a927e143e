package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/database"
	"github.com/stemsi/examforge/internal/logger"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/service"
	"gopkg.in/yaml.v3"
)

// seedFile is the layout of a question seed file.
type seedFile struct {
	Author    string                        `yaml:"author"`
	Questions []model.CreateQuestionRequest `yaml:"questions"`
}

func main() {
	var path string
	flag.StringVar(&path, "file", "seeds/questions.yaml", "Path to the question seed file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read seed file")
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to parse seed file")
	}

	store, closeStore, err := database.OpenDocStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer closeStore()

	questionRepo := repository.NewQuestionRepository(store)

	fmt.Printf("=== Seeding %d Questions ===\n", len(seed.Questions))

	created, skipped := 0, 0
	for i, req := range seed.Questions {
		q, err := service.NewQuestion(req)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("custom_id", req.CustomID).Msg("Skipping invalid question")
			skipped++
			continue
		}
		q.CreatedBy = seed.Author

		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Str("custom_id", req.CustomID).Msg("Failed to store question")
		}
		created++
	}

	fmt.Printf("Done. Created %d, skipped %d.\n", created, skipped)
}
