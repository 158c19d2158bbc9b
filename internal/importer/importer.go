package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"mini-commerce/internal/domain"
	productsvc "mini-commerce/internal/service/product"
)

type ProductCreator interface {
	Create(ctx context.Context, in productsvc.CreateInput) (*domain.Product, error)
}

var requiredColumns = []string{"title", "description", "price_cents", "stock", "category"}

// CSVImporter reads product rows with a header line and creates each one
// through the product service so the usual validation applies.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductCreator
	logger   logrus.FieldLogger
}

func NewCSVImporter(r io.Reader, products ProductCreator, logger logrus.FieldLogger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CSVImporter{
		reader:   csvr,
		products: products,
		logger:   logger.WithField("component", "importer"),
	}
}

// Run imports every non-blank row and stops at the first invalid one. The
// returned count covers rows created before the failure.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := i.reader.FieldPos(0)

		in, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := i.products.Create(ctx, in)
		if err != nil {
			return imported, fmt.Errorf("line %d: create %q: %w", line, in.Title, err)
		}
		i.logger.WithFields(logrus.Fields{"id": p.ID, "title": p.Title}).Debug("imported product")
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (productsvc.CreateInput, error) {
	price, err := strconv.ParseInt(pick(record, index, "price_cents"), 10, 64)
	if err != nil {
		return productsvc.CreateInput{}, fmt.Errorf("%w: price_cents must be an integer", domain.ErrValidation)
	}
	stock, err := strconv.Atoi(pick(record, index, "stock"))
	if err != nil {
		return productsvc.CreateInput{}, fmt.Errorf("%w: stock must be an integer", domain.ErrValidation)
	}
	return productsvc.CreateInput{
		Title:       pick(record, index, "title"),
		Description: pick(record, index, "description"),
		PriceCents:  price,
		Stock:       stock,
		Category:    pick(record, index, "category"),
	}, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
