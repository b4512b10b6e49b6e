package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"divorcerisk/internal/app"
	"divorcerisk/internal/catalog"
	"divorcerisk/internal/config"
	"divorcerisk/internal/model"
	"divorcerisk/internal/repository"
	"divorcerisk/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB)
	svc := service.NewAssessmentService(
		repository.NewAssessmentRepo(db),
		repository.NewAnswerRepo(db),
		repository.NewPredictionRepo(db),
		nil,
		logger,
	)

	clinicianID := service.ClinicianIDFor(cfg.ClinicianUsername)
	a, err := svc.Create(ctx, clinicianID, &model.CreateAssessmentRequest{
		CoupleLabel:  "Demo couple",
		PartnerAName: "Partner A",
		PartnerBName: "Partner B",
		Title:        "Intake questionnaire",
	})
	if err != nil {
		logger.Fatal("failed to create assessment", zap.Error(err))
	}

	demo := catalog.DemoAnswers(model.PartnerA)
	items := make([]model.BulkAnswerItem, len(demo))
	for i, d := range demo {
		items[i] = model.BulkAnswerItem{Partner: d.Partner, Value: d.Value, Text: d.Text}
	}
	n, err := svc.AddAnswers(ctx, clinicianID, a.ID, items)
	if err != nil {
		logger.Fatal("failed to insert answers", zap.Error(err))
	}

	fmt.Printf("Created assessment %s for clinician %s (%s) with %d answers\n", a.ID, cfg.ClinicianUsername, clinicianID, n)
}
