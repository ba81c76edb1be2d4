package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"idea-review/backend/internal/config"
	"idea-review/backend/internal/logging"
	"idea-review/backend/internal/repository"
	"idea-review/backend/internal/services"
	"idea-review/backend/pkg/models"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	// 1. Ensure schema exists
	if err := repository.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	catalog := repository.NewPostgresWorkflowCatalog(pool)
	states := repository.NewPostgresStageStateStore(pool)
	events := repository.NewPostgresEventLog(pool)
	ideas := repository.NewPostgresIdeaStore(pool)

	workflowService := services.NewWorkflowService(catalog, logger, cfg.Review.MinStages, cfg.Review.MaxStages)
	reviewService := services.NewReviewService(
		catalog, states, states, events, ideas, logger,
		cfg.Review.MaxCommentLen, cfg.Review.BlindEnabled,
	)

	seeder := models.Actor{ID: "seed-script", Role: models.RoleAdmin}

	// 2. Ensure an active workflow exists
	_, err = workflowService.Active(ctx)
	if err != nil {
		var notFound *models.NotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Failed to check active workflow: %v", err)
		}
		wf, err := workflowService.CreateAndActivate(ctx, []string{"Screening", "Technical", "Final"}, seeder)
		if err != nil {
			log.Fatalf("Failed to seed workflow: %v", err)
		}
		logger.Info("Seeded workflow", "id", wf.ID, "version", wf.Version)
	} else {
		logger.Info("Active workflow already present, skipping workflow seed")
	}

	// 3. Seed demo ideas and bind them to the active workflow
	demos := []struct {
		Title     string
		OwnerID   string
		OwnerName string
	}{
		{"Self-service onboarding portal", "alice@example.com", "Alice Moreau"},
		{"Edge cache for the asset pipeline", "bob@example.com", "Bob Tanaka"},
	}

	existing, err := ideas.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list existing ideas: %v", err)
	}
	existingTitles := make(map[string]bool)
	for _, idea := range existing {
		existingTitles[idea.Title] = true
	}

	for _, demo := range demos {
		if existingTitles[demo.Title] {
			logger.Info("Skipping existing idea", "title", demo.Title)
			continue
		}

		idea := &models.Idea{
			ID:        uuid.New().String(),
			Title:     demo.Title,
			OwnerID:   demo.OwnerID,
			OwnerName: demo.OwnerName,
			Status:    models.IdeaStatusUnderReview,
		}
		if err := ideas.Create(ctx, idea); err != nil {
			log.Printf("Failed to create idea %s: %v", demo.Title, err)
			continue
		}

		if _, err := reviewService.Bind(ctx, idea.ID, seeder); err != nil {
			log.Printf("Failed to bind idea %s: %v", demo.Title, err)
		} else {
			logger.Info("Seeded idea", "title", demo.Title, "id", idea.ID)
		}
	}
	logger.Info("Seeding complete!")
}
