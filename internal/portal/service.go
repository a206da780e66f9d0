// Package portal implements the order-collection workflow: spreadsheet import, supplier
// access by link, document submission and the buyer dashboard.
package portal

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/ingest"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventLineSubmitted is pushed to the owning buyer after a supplier upload.
const EventLineSubmitted = "line_submitted"

// ErrInvalidLink is returned for unknown tokens and for lines outside a token's scope.
var ErrInvalidLink = apperr.New(apperr.KindInvalidLink, "this link is invalid or has expired")

type OrderStore interface {
	InsertBatch(ctx context.Context, lines []models.PurchaseOrderLine) ([]models.PurchaseOrderLine, error)
	FindByToken(ctx context.Context, token string) ([]models.PurchaseOrderLine, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.PurchaseOrderLine, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PurchaseOrderLine, error)
	MarkSubmitted(ctx context.Context, id primitive.ObjectID, token string, status models.LineStatus, file models.SubmittedFile) (*models.PurchaseOrderLine, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, ownerID string, set map[string]interface{}, unset []string) (*models.PurchaseOrderLine, error)
	Delete(ctx context.Context, id primitive.ObjectID, ownerID string) (bool, error)
}

type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type Notifier interface {
	Publish(ctx context.Context, userID, event string, data interface{}) error
}

type Options struct {
	PublicBaseURL  string
	MaxUploadBytes int64
	// SubmitStatus is DONE, or PENDING_APPROVAL when the buyer reviews uploads.
	SubmitStatus models.LineStatus
	Now          func() time.Time
	MintToken    func() (string, error)
}

type Service struct {
	orders   OrderStore
	blobs    BlobStore
	notifier Notifier
	log      *logger.Logger
	opts     Options
}

func NewService(orders OrderStore, blobs BlobStore, notifier Notifier, log *logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.SubmitStatus != models.StatusPendingApproval {
		opts.SubmitStatus = models.StatusDone
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.MintToken == nil {
		opts.MintToken = ingest.NewToken
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Service{orders: orders, blobs: blobs, notifier: notifier, log: log, opts: opts}
}

// Link is the secret URL handed to a supplier.
func (s *Service) Link(token string) string {
	return s.opts.PublicBaseURL + "/?access_token=" + url.QueryEscape(token)
}

// LineView is a dashboard row.
type LineView struct {
	models.PurchaseOrderLine
	SecretLink string `json:"secretLink"`
}

func (s *Service) view(line models.PurchaseOrderLine) LineView {
	return LineView{PurchaseOrderLine: line, SecretLink: s.Link(line.AccessToken)}
}

func requireSession(sess *identity.Session) error {
	if sess == nil || sess.UserID == "" {
		return apperr.New(apperr.KindUnauthorized, "login required")
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, apperr.Newf(apperr.KindValidation, "invalid line id %q", id)
	}
	return oid, nil
}
