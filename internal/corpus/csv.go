package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"complaintrag/internal/domain"
)

const unknownProduct = "Unknown"

// LoadCSV reads complaint records from a CSV file with a header row.
func LoadCSV(path, narrativeCol, productCol string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, narrativeCol, productCol)
}

// Read parses complaint records. The header must contain both named columns
// and at least one data row must follow. Rows that fail to parse are kept
// with Malformed set so the indexer can report and skip them.
func Read(r io.Reader, narrativeCol, productCol string) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: dataset is empty", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrInvalidInput, err)
	}
	narrIdx, prodIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case narrativeCol:
			narrIdx = i
		case productCol:
			prodIdx = i
		}
	}
	var missing []string
	if narrIdx < 0 {
		missing = append(missing, narrativeCol)
	}
	if prodIdx < 0 {
		missing = append(missing, productCol)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %v", domain.ErrInvalidInput, missing)
	}

	var records []domain.Record
	for row := 0; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			records = append(records, domain.Record{Row: row, Product: unknownProduct, Malformed: true})
			continue
		}
		records = append(records, domain.Record{
			Row:       row,
			Narrative: normalizeNarrative(fields[narrIdx]),
			Product:   productOrUnknown(fields[prodIdx]),
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", domain.ErrInvalidInput)
	}
	return records, nil
}

func normalizeNarrative(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "nan") {
		return ""
	}
	return s
}

func productOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownProduct
	}
	return s
}

// ProductCount is the number of complaints filed against one product.
type ProductCount struct {
	Product string `json:"product"`
	Count   int    `json:"count"`
}

// Stats summarises a corpus for dashboards.
type Stats struct {
	TotalComplaints     int            `json:"total_complaints"`
	ProductsAffected    int            `json:"products_affected"`
	TopProducts         []ProductCount `json:"top_products"`
	ComplianceRiskScore string         `json:"compliance_risk_score"`
}

// Summarize counts complaints per product and grades overall volume.
func Summarize(records []domain.Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Product]++
	}
	top := make([]ProductCount, 0, len(counts))
	for p, c := range counts {
		top = append(top, ProductCount{Product: p, Count: c})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Product < top[j].Product
	})
	if len(top) > 5 {
		top = top[:5]
	}
	risk := "high"
	switch {
	case len(records) < 100:
		risk = "low"
	case len(records) < 500:
		risk = "medium"
	}
	return Stats{
		TotalComplaints:     len(records),
		ProductsAffected:    len(counts),
		TopProducts:         top,
		ComplianceRiskScore: risk,
	}
}
