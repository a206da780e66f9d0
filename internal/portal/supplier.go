package portal

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/database"
	"po-bridge-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// documentTypes maps accepted CoA content types to the stored extension.
var documentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

const pdfMarkerWindow = 1024

var pdfMarker = []byte("%PDF-")

// SupplierLine is what a supplier sees of a line. Owner and token stay hidden.
type SupplierLine struct {
	ID           string            `json:"id"`
	PONumber     string            `json:"poNumber"`
	ItemName     string            `json:"itemName"`
	ItemCode     string            `json:"itemCode"`
	Spec         string            `json:"spec"`
	LotNo        string            `json:"lotNo"`
	Quantity     string            `json:"quantity"`
	Manufacturer string            `json:"manufacturer"`
	Status       models.LineStatus `json:"status"`
	FileName     string            `json:"fileName,omitempty"`
	FileURL      string            `json:"fileURL,omitempty"`
	SubmittedAt  *time.Time        `json:"submittedAt,omitempty"`
}

func toSupplierLine(l models.PurchaseOrderLine) SupplierLine {
	return SupplierLine{
		ID:           l.ID.Hex(),
		PONumber:     l.PONumber,
		ItemName:     l.ItemName,
		ItemCode:     l.ItemCode,
		Spec:         l.Spec,
		LotNo:        l.LotNo,
		Quantity:     l.Quantity,
		Manufacturer: l.Manufacturer,
		Status:       l.Status,
		FileName:     l.FileName,
		FileURL:      l.FileURL,
		SubmittedAt:  l.SubmittedAt,
	}
}

type SupplierView struct {
	SupplierName string         `json:"supplierName"`
	Total        int            `json:"total"`
	Submitted    int            `json:"submitted"`
	Lines        []SupplierLine `json:"lines"`
}

// SupplierView lists every line sharing token, oldest first.
func (s *Service) SupplierView(ctx context.Context, token string) (*SupplierView, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidLink
	}
	lines, err := s.orders.FindByToken(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "loading supplier lines")
	}
	if len(lines) == 0 {
		return nil, ErrInvalidLink
	}

	view := &SupplierView{
		SupplierName: lines[0].SupplierName,
		Total:        len(lines),
		Lines:        make([]SupplierLine, 0, len(lines)),
	}
	for _, l := range lines {
		if l.Status.Submitted() {
			view.Submitted++
		}
		view.Lines = append(view.Lines, toSupplierLine(l))
	}
	return view, nil
}

// Upload is one document posted by a supplier.
type Upload struct {
	Filename    string
	ContentType string // as declared by the client
	Size        int64
	Body        io.ReadSeeker
}

// Submit stores a CoA for one line in the token's scope and marks the line submitted.
// The blob write and the status write are separate steps; a failed status write
// leaves the uploaded object behind and is logged with its key.
func (s *Service) Submit(ctx context.Context, token, lineID string, up Upload) (*SupplierLine, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidLink
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(lineID))
	if err != nil {
		return nil, ErrInvalidLink
	}

	line, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "loading line")
	}
	if subtle.ConstantTimeCompare([]byte(line.AccessToken), []byte(token)) != 1 {
		return nil, ErrInvalidLink
	}
	if !line.Status.CanAdvanceTo(s.opts.SubmitStatus) {
		return nil, apperr.New(apperr.KindConflict, "this document has already been approved")
	}

	contentType, err := s.checkUpload(up)
	if err != nil {
		return nil, err
	}

	ctx = s.log.WithFields(ctx, map[string]any{"line_id": lineID, "supplier": line.SupplierName})
	key := BlobKey(*line, documentTypes[contentType])
	if _, err := up.Body.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "rewinding upload")
	}
	fileURL, err := s.blobs.Put(ctx, key, up.Body, up.Size, contentType)
	if err != nil {
		s.log.Error(ctx, "document upload failed", err)
		return nil, apperr.Wrap(apperr.KindDependency, err, "storing document")
	}

	file := models.SubmittedFile{
		URL:         fileURL,
		Name:        cleanFilename(up.Filename, documentTypes[contentType]),
		ContentType: contentType,
		At:          s.opts.Now(),
	}
	updated, err := s.orders.MarkSubmitted(ctx, id, token, s.opts.SubmitStatus, file)
	if err != nil {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{"orphan_key": key, "error": err.Error()}), "document stored but line not updated")
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "updating line status")
	}

	s.log.Info(s.log.WithField(ctx, "status", string(updated.Status)), "document submitted")
	if s.notifier != nil {
		_ = s.notifier.Publish(ctx, updated.OwnerID, EventLineSubmitted, s.view(*updated))
	}

	result := toSupplierLine(*updated)
	return &result, nil
}

// checkUpload enforces size and type limits and returns the content type to store.
func (s *Service) checkUpload(up Upload) (string, error) {
	if up.Body == nil || up.Size == 0 {
		return "", apperr.New(apperr.KindValidation, "the uploaded file is empty")
	}
	if up.Size > s.opts.MaxUploadBytes {
		return "", apperr.Newf(apperr.KindValidation, "the file exceeds the %d MB limit", s.opts.MaxUploadBytes>>20)
	}

	head := make([]byte, pdfMarkerWindow)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", apperr.Wrap(apperr.KindValidation, err, "the uploaded file could not be read")
	}
	if n == 0 {
		return "", apperr.New(apperr.KindValidation, "the uploaded file is empty")
	}

	sniffed := baseType(http.DetectContentType(head[:n]))
	if _, ok := documentTypes[sniffed]; ok {
		return sniffed, nil
	}
	// A PDF may carry up to 1 KB of leading bytes before its header, which
	// sniffing misses. Accept it only when declared and the header is there.
	if sniffed == "application/octet-stream" && baseType(up.ContentType) == "application/pdf" &&
		bytes.Contains(head[:n], pdfMarker) {
		return "application/pdf", nil
	}
	return "", apperr.New(apperr.KindValidation, "only PDF, PNG or JPEG files are accepted")
}

func baseType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// BlobKey is coa/<supplier>/<line id>[_<lot>]<ext>. The line id keeps lines sharing a lot apart.
func BlobKey(line models.PurchaseOrderLine, ext string) string {
	name := line.ID.Hex()
	if lot := sanitizeSegment(line.LotNo); lot != "" {
		name += "_" + lot
	}
	supplier := sanitizeSegment(line.SupplierName)
	if supplier == "" {
		supplier = "unknown"
	}
	return "coa/" + supplier + "/" + name + ext
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '/' || r == '\\' || r == '?' || r == '#' || r == '%' || unicode.IsSpace(r) || unicode.IsControl(r):
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return strings.Trim(b.String(), "_.")
}

func cleanFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || strings.TrimSpace(base) == "" {
		return "document" + ext
	}
	return base
}
