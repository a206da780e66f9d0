// internal/ingest/ingest.go
package ingest

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"po-bridge-api-server/internal/models"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxHeaderScan is how many leading rows may precede the header (titles, notes).
	MaxHeaderScan = 10
	// TokenBytes is the randomness behind one supplier access token.
	TokenBytes = 16
)

// MissingColumnError aborts an ingestion before anything is written.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in the first %d rows", e.Column, MaxHeaderScan)
}

// Row is one data row of the order sheet after column lookup and coercion.
type Row struct {
	Line         int // 1-based spreadsheet row
	PONumber     string
	SupplierName string
	ItemName     string
	ItemCode     string
	Spec         string
	LotNo        string
	Quantity     string
	Manufacturer string
}

// Sheet is a parsed purchase-order spreadsheet.
type Sheet struct {
	HeaderRow int // 1-based
	Columns   map[Field]int
	Missing   []string // optional columns that were not found
	Rows      []Row
	Dropped   int // rows without a supplier (subtotals, blanks)
}

// Group is every row of one supplier within an ingestion.
type Group struct {
	SupplierName string
	Rows         []Row
}

// Batch is a group with its freshly minted token and the records to insert.
type Batch struct {
	SupplierName string
	AccessToken  string
	Lines        []models.PurchaseOrderLine
}

// Parse locates the header row and converts data rows. Rows lacking a supplier are dropped.
func Parse(rows [][]string) (*Sheet, error) {
	headerIdx := -1
	var cols map[Field]int
	for i := 0; i < len(rows) && i < MaxHeaderScan; i++ {
		candidate := mapColumns(rows[i])
		if _, ok := candidate[FieldSupplier]; ok {
			headerIdx, cols = i, candidate
			break
		}
	}
	if headerIdx < 0 {
		return nil, &MissingColumnError{Column: CanonicalColumn(FieldSupplier)}
	}

	sheet := &Sheet{HeaderRow: headerIdx + 1, Columns: cols}
	for _, f := range allFields {
		if _, ok := cols[f]; !ok {
			sheet.Missing = append(sheet.Missing, CanonicalColumn(f))
		}
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		get := func(f Field) string {
			idx, ok := cols[f]
			if !ok || idx >= len(rows[i]) {
				return fieldDefaults[f]
			}
			if v := coerceCell(rows[i][idx]); v != "" {
				return v
			}
			return fieldDefaults[f]
		}

		supplier := NormalizeSupplier(get(FieldSupplier))
		if supplier == "" {
			sheet.Dropped++
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{
			Line:         i + 1,
			PONumber:     get(FieldPONumber),
			SupplierName: supplier,
			ItemName:     get(FieldItemName),
			ItemCode:     get(FieldItemCode),
			Spec:         get(FieldSpec),
			LotNo:        get(FieldLotNo),
			Quantity:     get(FieldQuantity),
			Manufacturer: get(FieldManufacturer),
		})
	}
	return sheet, nil
}

// spreadsheet error literals and NaN renderings that carry no data
var blankCells = map[string]struct{}{
	"nan": {}, "#n/a": {}, "#value!": {}, "#ref!": {}, "#div/0!": {},
	"#name?": {}, "#null!": {}, "#num!": {},
}

func coerceCell(raw string) string {
	v := strings.TrimSpace(strings.Trim(raw, "\ufeff\u00a0"))
	if _, ok := blankCells[strings.ToLower(v)]; ok {
		return ""
	}
	return v
}

// NormalizeSupplier is the grouping key: NFC, trimmed, inner whitespace collapsed.
func NormalizeSupplier(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// GroupBySupplier keeps suppliers in order of first appearance.
func GroupBySupplier(rows []Row) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, row := range rows {
		i, ok := index[row.SupplierName]
		if !ok {
			i = len(groups)
			index[row.SupplierName] = i
			groups = append(groups, Group{SupplierName: row.SupplierName})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// NewToken returns an unguessable URL-safe access token.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// BuildBatches mints one token per group and creates PENDING_UPLOAD records owned by ownerID.
func BuildBatches(ownerID string, groups []Group, now time.Time, mint func() (string, error)) ([]Batch, error) {
	if mint == nil {
		mint = NewToken
	}
	batches := make([]Batch, 0, len(groups))
	for _, g := range groups {
		token, err := mint()
		if err != nil {
			return nil, err
		}
		lines := make([]models.PurchaseOrderLine, 0, len(g.Rows))
		for _, row := range g.Rows {
			lines = append(lines, models.PurchaseOrderLine{
				OwnerID:      ownerID,
				SupplierName: g.SupplierName,
				PONumber:     row.PONumber,
				ItemName:     row.ItemName,
				ItemCode:     row.ItemCode,
				Spec:         row.Spec,
				LotNo:        row.LotNo,
				Quantity:     row.Quantity,
				Manufacturer: row.Manufacturer,
				AccessToken:  token,
				Status:       models.StatusPendingUpload,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
		batches = append(batches, Batch{SupplierName: g.SupplierName, AccessToken: token, Lines: lines})
	}
	return batches, nil
}
