package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/IdoNaor1/TasteClub/config"
	"github.com/IdoNaor1/TasteClub/internal/app"
	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
)

// Columns recognised in the header row. id and name are required.
const (
	colID          = "id"
	colName        = "name"
	colAddress     = "address"
	colLat         = "lat"
	colLng         = "lng"
	colPrimaryType = "type"
	colPhotoURL    = "photourl"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> [-y]")
	}
	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "-y"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "console", EnableColor: true})

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	restaurants, skipped, err := readRestaurantsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Restaurants to import: %d (skipped rows: %d)\n", len(restaurants), skipped)

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	ctx := context.Background()
	container, err := app.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer container.Close()

	failed := 0
	for i := range restaurants {
		if _, err := container.Restaurants.UpsertRestaurant(ctx, &restaurants[i]); err != nil {
			failed++
			logger.Error("Failed to import restaurant", err, logger.Fields{"restaurant_id": restaurants[i].ID})
		}
	}

	fmt.Println("Import completed!")
	fmt.Printf("Imported: %d, failed: %d\n", len(restaurants)-failed, failed)
}

// readRestaurantsFromXLSX reads the first sheet. The first row is a header
// naming the columns; rows without an id or name, with unparsable
// coordinates, or repeating an earlier id are skipped.
func readRestaurantsFromXLSX(filePath string) ([]model.Restaurant, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	if _, ok := columns[colID]; !ok {
		return nil, 0, fmt.Errorf("header row has no %q column", colID)
	}
	if _, ok := columns[colName]; !ok {
		return nil, 0, fmt.Errorf("header row has no %q column", colName)
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var restaurants []model.Restaurant
	seen := make(map[string]bool)
	skipped := 0
	for _, row := range rows[1:] {
		id, name := cell(row, colID), cell(row, colName)
		if id == "" || name == "" || seen[id] {
			skipped++
			continue
		}

		lat, latOK := parseCoordinate(cell(row, colLat), 90)
		lng, lngOK := parseCoordinate(cell(row, colLng), 180)
		if !latOK || !lngOK {
			skipped++
			continue
		}

		seen[id] = true
		restaurants = append(restaurants, model.Restaurant{
			ID:          id,
			Name:        name,
			Address:     cell(row, colAddress),
			Lat:         lat,
			Lng:         lng,
			PrimaryType: cell(row, colPrimaryType),
			PhotoURL:    cell(row, colPhotoURL),
		})
	}
	return restaurants, skipped, nil
}

// parseCoordinate accepts an empty cell as 0.
func parseCoordinate(raw string, limit float64) (float64, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}
