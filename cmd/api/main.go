package main

import (
	"context"
	"log"

	"gojsd/internal/config"
	"gojsd/internal/container"
	"gojsd/internal/migration"
	"gojsd/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

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
	defer appContainer.Shutdown(context.Background())

	if appConfig.Database.Enabled() {
		db, err := sqlx.Connect("postgres", appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := migration.NewRunner().Run(context.Background(), db); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		appContainer.InitFileOnly()
	}

	if err := appContainer.LoadSources(context.Background()); err != nil {
		log.Fatalf("Failed to load dataset sources: %v", err)
	}

	server := ui.NewServer(appContainer.Catalog, appContainer.Comparisons, appContainer.Batches, appContainer.Reader, appContainer.RunRepo)
	log.Printf("Starting API server on http://localhost:%s", appConfig.Server.APIPort)
	log.Fatal(server.Start(":" + appConfig.Server.APIPort))
}
