package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/grocerai/backend/internal/domain"
)

// column identifies a products field in a spreadsheet header row
type column int

const (
	colName column = iota
	colPrice
	colImage
	colPackSize
	colCategory
	colSubcategory
)

// headerAliases maps normalized header cells to columns. The "quantity"
// column of the products sheet holds the pack size.
var headerAliases = map[string]column{
	"productname": colName,
	"product":     colName,
	"name":        colName,
	"price":       colPrice,
	"imageurl":    colImage,
	"image":       colImage,
	"quantity":    colPackSize,
	"packsize":    colPackSize,
	"category":    colCategory,
	"subcategory": colSubcategory,
}

// ErrMissingColumns is returned when a sheet has no product name or price column
var ErrMissingColumns = errors.New("products sheet must have ProductName and Price columns")

// LoadFile reads products from a .csv or .xlsx file.
func LoadFile(path, sheet string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, sheet)
	default:
		return nil, fmt.Errorf("unsupported catalog file %q (want .csv or .xlsx)", path)
	}
}

// ReadCSV reads products from CSV with a header row
// (ProductName, Price, Image_Url, Quantity, Category, SubCategory).
func ReadCSV(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsToProducts(rows)
}

// ReadXLSX reads products from a workbook. An empty sheet name means the first sheet.
func ReadXLSX(r io.Reader, sheet string) ([]domain.Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rowsToProducts(rows)
}

func rowsToProducts(rows [][]string) ([]domain.Product, error) {
	if len(rows) == 0 {
		return []domain.Product{}, nil
	}

	index := map[column]int{}
	for i, cell := range rows[0] {
		if col, ok := headerAliases[normalizeHeader(cell)]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	if _, ok := index[colName]; !ok {
		return nil, ErrMissingColumns
	}
	if _, ok := index[colPrice]; !ok {
		return nil, ErrMissingColumns
	}

	cell := func(row []string, col column) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	products := make([]domain.Product, 0, len(rows)-1)
	for n, row := range rows[1:] {
		name := cell(row, colName)
		if name == "" {
			continue
		}
		price, err := parsePrice(cell(row, colPrice))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", n+2, name, err)
		}
		products = append(products, domain.Product{
			Name:        name,
			Price:       price,
			ImageURL:    cell(row, colImage),
			PackSize:    cell(row, colPackSize),
			Category:    cell(row, colCategory),
			Subcategory: cell(row, colSubcategory),
		})
	}
	return products, nil
}

// normalizeHeader lowercases and drops spaces, underscores and dashes:
// "Image_Url" -> "imageurl", "Sub Category" -> "subcategory".
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// parsePrice accepts "12", "12.50", "₹12.50" or "$1,299.00".
func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return v, nil
}
