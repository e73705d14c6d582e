package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/catalogimport"
	"github.com/ikkim/storefront-backend/internal/db"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer file.Close()

	rows, summary, err := catalogimport.ReadProducts(file)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Total rows: %d\n", summary.TotalRows)
	fmt.Printf("Valid products: %d\n", summary.ValidRows)
	fmt.Printf("Skipped rows: %d\n", summary.Skipped)
	fmt.Printf("Duplicates: %d\n", summary.Duplicates)

	if len(rows) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	result, err := catalogimport.Import(context.Background(), repository.NewUnitOfWork(db.GetDB()), rows)
	if err != nil {
		log.Fatal("Failed to import catalog:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Categories created: %d\n", result.CategoriesCreated)
	fmt.Printf("Products created: %d\n", result.ProductsCreated)
}
