package main

import (
	"context"
	"fmt"
	"os"

	"stockmart/internal/config"
	"stockmart/internal/database"
	"stockmart/internal/model"
	"stockmart/internal/repository"
)

// seedCatalogue loads the sample product catalogue into the stock
// database, creating the schema if needed. Safe to re-run: existing
// products are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create schema: %v\n", err)
		os.Exit(1)
	}

	catalogue := []model.Product{
		{Number: "0001", Description: "40 inch LED HD TV", Price: 269.00, StockLevel: 90},
		{Number: "0002", Description: "DAB Radio", Price: 29.99, StockLevel: 20},
		{Number: "0003", Description: "Toaster", Price: 19.99, StockLevel: 33},
		{Number: "0004", Description: "Watch", Price: 29.99, StockLevel: 10},
		{Number: "0005", Description: "Digital Camera", Price: 89.99, StockLevel: 17},
		{Number: "0006", Description: "MP3 player", Price: 7.99, StockLevel: 15},
		{Number: "0007", Description: "32Gb USB2 drive", Price: 6.99, StockLevel: 1},
	}

	for _, p := range catalogue {
		imageKey := fmt.Sprintf("%s.jpg", p.Number)
		if err := repository.InsertProduct(ctx, pool, p, imageKey); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to insert %s: %v\n", p.Number, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %s %s (%.2f) stock %d\n", p.Number, p.Description, p.Price, p.StockLevel)
	}

	fmt.Println("\nSample catalogue seeded successfully!")
}
