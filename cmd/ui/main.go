package main

import (
	"context"
	"log"

	"gojsd/internal/config"
	"gojsd/internal/container"
	"gojsd/internal/testkit"
	"gojsd/ui"

	"github.com/joho/godotenv"
)

// Dashboard-only entrypoint without persistence. When no sources are
// configured, two synthetic panels with a known skew are seeded so the
// dashboard has something to show.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	appContainer.InitFileOnly()

	ctx := context.Background()
	if err := appContainer.LoadSources(ctx); err != nil {
		log.Fatalf("Failed to load dataset sources: %v", err)
	}

	if appContainer.Catalog.Len() == 0 {
		log.Println("No sources configured, seeding synthetic demo panels")
		kit, err := testkit.NewTestKit()
		if err != nil {
			log.Fatalf("Failed to create demo kit: %v", err)
		}
		reference, err := kit.GenerateDataset("reference_panel", 42)
		if err != nil {
			log.Fatalf("Failed to generate demo panel: %v", err)
		}
		skewed, err := kit.GenerateSkewedDataset("drifted_panel", 43, "gender", "Female", 1.4)
		if err != nil {
			log.Fatalf("Failed to generate demo panel: %v", err)
		}
		appContainer.Catalog.Register(ctx, reference)
		appContainer.Catalog.Register(ctx, skewed)
	}

	app, err := ui.NewApp(ui.Config{Port: appConfig.Server.Port},
		appContainer.Catalog, appContainer.Comparisons, appContainer.Batches, appContainer.Reader)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Printf("Starting dashboard on http://localhost:%s", appConfig.Server.Port)
	log.Fatal(app.Start())
}
