package catalogimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column layout of the first sheet; row 1 is the header.
const (
	colName = iota
	colDescription
	colPrice
	colStock
	colCategory
	columnCount
)

type Row struct {
	Line        int
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

type Summary struct {
	TotalRows  int
	ValidRows  int
	Skipped    int
	Duplicates int
}

type Result struct {
	CategoriesCreated int
	ProductsCreated   int
}

// ReadProducts parses product rows from an xlsx workbook.
// Rows with missing fields, a bad price or a negative stock are skipped.
func ReadProducts(r io.Reader) ([]Row, Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, Summary{}, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, Summary{}, errors.New("no data found in XLSX file")
	}

	var (
		result  []Row
		summary Summary
		seen    = make(map[string]bool)
	)
	for i, cells := range rows {
		if i == 0 {
			continue // header
		}
		summary.TotalRows++

		row, ok := parseRow(i+1, cells)
		if !ok {
			summary.Skipped++
			continue
		}

		key := strings.ToLower(row.Category + "|" + row.Name)
		if seen[key] {
			summary.Duplicates++
			continue
		}
		seen[key] = true
		result = append(result, row)
	}
	summary.ValidRows = len(result)

	return result, summary, nil
}

func parseRow(line int, cells []string) (Row, bool) {
	if len(cells) < columnCount {
		return Row{}, false
	}

	name := strings.TrimSpace(cells[colName])
	category := strings.TrimSpace(cells[colCategory])
	if name == "" || category == "" {
		return Row{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(cells[colPrice]))
	if err != nil || price.IsNegative() {
		return Row{}, false
	}
	stock, err := strconv.Atoi(strings.TrimSpace(cells[colStock]))
	if err != nil || stock < 0 {
		return Row{}, false
	}

	return Row{
		Line:        line,
		Name:        name,
		Description: strings.TrimSpace(cells[colDescription]),
		Price:       price.Round(2),
		Stock:       stock,
		Category:    category,
	}, true
}

// Import writes rows in one transaction, creating missing categories by name.
func Import(ctx context.Context, uow repository.UnitOfWork, rows []Row) (Result, error) {
	var result Result
	err := uow.Do(ctx, func(r *repository.Repositories) error {
		result = Result{}
		categories := make(map[string]uint)

		for _, row := range rows {
			categoryID, ok := categories[row.Category]
			if !ok {
				category, err := r.Categories.FindByName(ctx, row.Category)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					category = &model.Category{Name: row.Category}
					if err := r.Categories.Create(ctx, category); err != nil {
						return err
					}
					result.CategoriesCreated++
				} else if err != nil {
					return err
				}
				categoryID = category.ID
				categories[row.Category] = categoryID
			}

			product := &model.Product{
				Name:        row.Name,
				Description: row.Description,
				Price:       row.Price,
				Stock:       row.Stock,
				CategoryID:  categoryID,
			}
			if err := r.Products.Create(ctx, product); err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			result.ProductsCreated++
		}
		return nil
	})
	if err != nil {
		logger.Error("Catalog import failed", err)
		return Result{}, err
	}

	logger.Info("Catalog import completed", logger.Fields{
		"categories_created": result.CategoriesCreated,
		"products_created":   result.ProductsCreated,
	})
	return result, nil
}
