package main

import (
	"context"
	"log"

	"gojsd/internal/config"
	"gojsd/internal/container"
	"gojsd/internal/errors"
	"gojsd/internal/migration"
	"gojsd/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// Run migrations
	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Initialize with or without persistence depending on configuration
	if appConfig.Database.Enabled() {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		log.Println("No DATABASE_URL configured, runs are kept in memory only")
		appContainer.InitFileOnly()
	}

	// Pull configured dataset sources into the catalog
	if err := appContainer.LoadSources(context.Background()); err != nil {
		log.Fatalf("Failed to load dataset sources: %v", err)
	}
	if appContainer.Catalog.Len() == 0 {
		log.Println("No datasets loaded; load files through the API or configure SOURCES_FILE")
	}

	// JSON API for programmatic clients on its own port
	apiServer := ui.NewServer(appContainer.Catalog, appContainer.Comparisons, appContainer.Batches, appContainer.Reader, appContainer.RunRepo)
	go func() {
		log.Printf("Starting API server on http://localhost:%s", appConfig.Server.APIPort)
		if err := apiServer.Start(":" + appConfig.Server.APIPort); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	// Dashboard on the main port
	app, err := ui.NewApp(ui.Config{Port: appConfig.Server.Port},
		appContainer.Catalog, appContainer.Comparisons, appContainer.Batches, appContainer.Reader)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}
	log.Printf("Starting dashboard on http://localhost:%s", appConfig.Server.Port)
	log.Fatal(app.Start())
}
