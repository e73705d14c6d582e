package catalogimport

import (
	"bytes"
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"name", "description", "price", "stock", "category"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadProducts(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Gold Ring", "18k", "199.99", "3", "Rings"},
		{"Silver Ring", "", "49.5", "10", "Rings"},
		{"gold ring", "dup", "1", "1", "rings"},
		{"", "no name", "1", "1", "Rings"},
		{"Bag", "bad price", "abc", "1", "Bags"},
		{"Bag", "negative stock", "10", "-1", "Bags"},
		{"Short row"},
	})

	rows, summary, err := ReadProducts(buf)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Gold Ring", rows[0].Name)
	assert.Equal(t, 2, rows[0].Line)
	assert.True(t, decimal.RequireFromString("199.99").Equal(rows[0].Price))
	assert.Equal(t, 3, rows[0].Stock)
	assert.Equal(t, "Rings", rows[0].Category)

	assert.Equal(t, Summary{TotalRows: 7, ValidRows: 2, Skipped: 4, Duplicates: 1}, summary)
}

func TestReadProducts_InvalidFile(t *testing.T) {
	_, _, err := ReadProducts(bytes.NewBufferString("not a workbook"))
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	require.NoError(t, testDB.Create(&model.Category{Name: "Rings"}).Error)

	rows := []Row{
		{Line: 2, Name: "Gold Ring", Price: decimal.NewFromInt(100), Stock: 2, Category: "Rings"},
		{Line: 3, Name: "Tote", Price: decimal.NewFromInt(50), Stock: 1, Category: "Bags"},
		{Line: 4, Name: "Clutch", Price: decimal.NewFromInt(70), Stock: 0, Category: "Bags"},
	}

	result, err := Import(ctx, repository.NewUnitOfWork(testDB), rows)
	require.NoError(t, err)
	assert.Equal(t, Result{CategoriesCreated: 1, ProductsCreated: 3}, result)

	var categories, products int64
	require.NoError(t, testDB.Model(&model.Category{}).Count(&categories).Error)
	require.NoError(t, testDB.Model(&model.Product{}).Count(&products).Error)
	assert.Equal(t, int64(2), categories)
	assert.Equal(t, int64(3), products)
}
