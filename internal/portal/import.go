package portal

import (
	"context"
	"errors"
	"io"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/ingest"
)

type BatchResult struct {
	SupplierName string `json:"supplierName"`
	AccessToken  string `json:"accessToken"`
	Link         string `json:"link"`
	LineCount    int    `json:"lineCount"`
}

type ImportResult struct {
	Batches        []BatchResult `json:"batches"`
	Inserted       int           `json:"inserted"`
	Dropped        int           `json:"dropped"`
	MissingColumns []string      `json:"missingColumns"`
}

// Import reads an order spreadsheet and stores one token batch per supplier.
// A sheet without the supplier column writes nothing.
func (s *Service) Import(ctx context.Context, sess *identity.Session, filename string, r io.Reader) (*ImportResult, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	ctx = s.log.WithFields(ctx, map[string]any{"user_id": sess.UserID, "filename": filename})

	rows, err := ingest.ReadRows(r, filename)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			return nil, apperr.New(apperr.KindValidation, err.Error())
		case errors.Is(err, ingest.ErrEmptyWorkbook):
			return nil, apperr.New(apperr.KindSchema, "the spreadsheet has no rows")
		default:
			return nil, apperr.Wrap(apperr.KindValidation, err, "the spreadsheet could not be read")
		}
	}

	sheet, err := ingest.Parse(rows)
	if err != nil {
		var missing *ingest.MissingColumnError
		if errors.As(err, &missing) {
			s.log.Warn(ctx, "import rejected: "+err.Error())
			return nil, apperr.New(apperr.KindSchema, err.Error()).
				WithDetails(map[string]string{"column": missing.Column})
		}
		return nil, apperr.Wrap(apperr.KindValidation, err, "the spreadsheet could not be parsed")
	}

	batches, err := ingest.BuildBatches(sess.UserID, ingest.GroupBySupplier(sheet.Rows), s.opts.Now(), s.opts.MintToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "minting access tokens")
	}

	result := &ImportResult{
		Batches:        make([]BatchResult, 0, len(batches)),
		Dropped:        sheet.Dropped,
		MissingColumns: sheet.Missing,
	}
	if result.MissingColumns == nil {
		result.MissingColumns = []string{}
	}
	for _, batch := range batches {
		inserted, err := s.orders.InsertBatch(ctx, batch.Lines)
		if err != nil {
			s.log.Error(s.log.WithField(ctx, "inserted", result.Inserted), "import stopped part way", err)
			return nil, apperr.Wrap(apperr.KindDependency, err, "saving order lines").
				WithDetails(map[string]int{"inserted": result.Inserted})
		}
		result.Inserted += len(inserted)
		result.Batches = append(result.Batches, BatchResult{
			SupplierName: batch.SupplierName,
			AccessToken:  batch.AccessToken,
			Link:         s.Link(batch.AccessToken),
			LineCount:    len(inserted),
		})
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"suppliers": len(result.Batches),
		"inserted":  result.Inserted,
		"dropped":   result.Dropped,
	}), "purchase order imported")
	return result, nil
}
