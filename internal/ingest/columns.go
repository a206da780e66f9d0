// internal/ingest/columns.go
package ingest

import (
	"strings"
	"unicode"
)

// Field is a logical purchase-order column.
type Field string

const (
	FieldPONumber     Field = "poNumber"
	FieldSupplier     Field = "supplierName"
	FieldItemName     Field = "itemName"
	FieldItemCode     Field = "itemCode"
	FieldSpec         Field = "spec"
	FieldLotNo        Field = "lotNo"
	FieldQuantity     Field = "quantity"
	FieldManufacturer Field = "manufacturer"
)

// columnAliases lists accepted header names per field; the first entry is the
// canonical one reported in errors.
var columnAliases = map[Field][]string{
	FieldPONumber:     {"발주번호", "PO번호", "PO No", "주문번호"},
	FieldSupplier:     {"공급사명", "공급사", "거래처명", "거래처"},
	FieldItemName:     {"품목명", "품명", "제품명"},
	FieldItemCode:     {"품목코드", "품번", "제품코드"},
	FieldSpec:         {"규격", "사양"},
	FieldLotNo:        {"LOT번호", "로트번호", "Lot No", "LOT"},
	FieldQuantity:     {"수량", "발주수량"},
	FieldManufacturer: {"제조사", "제조원", "메이커"},
}

var allFields = []Field{
	FieldPONumber, FieldSupplier, FieldItemName, FieldItemCode,
	FieldSpec, FieldLotNo, FieldQuantity, FieldManufacturer,
}

// fieldDefaults is substituted when a column is absent or a cell is blank.
var fieldDefaults = map[Field]string{
	FieldItemName:     "Unknown",
	FieldManufacturer: "Unknown",
}

// CanonicalColumn returns the header name a spreadsheet is expected to carry for f.
func CanonicalColumn(f Field) string {
	return columnAliases[f][0]
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]Field {
	idx := make(map[string]Field)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			idx[normalizeHeader(alias)] = field
		}
	}
	return idx
}

// normalizeHeader drops surrounding and inner whitespace (incl. NBSP and BOM) and case.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range header {
		if unicode.IsSpace(r) || r == '\ufeff' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// mapColumns resolves header cells to field positions; the first match wins.
func mapColumns(header []string) map[Field]int {
	cols := make(map[Field]int)
	for i, cell := range header {
		field, ok := aliasIndex[normalizeHeader(cell)]
		if !ok {
			continue
		}
		if _, seen := cols[field]; !seen {
			cols[field] = i
		}
	}
	return cols
}
