// internal/database/memory.go
package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"po-bridge-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryOrderStore is a process-local order store used by the memory driver and tests.
// It matches the filtering and ordering of MongoOrderStore.
type MemoryOrderStore struct {
	mu    sync.RWMutex
	lines map[primitive.ObjectID]models.PurchaseOrderLine
	now   func() time.Time
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		lines: make(map[primitive.ObjectID]models.PurchaseOrderLine),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryOrderStore) InsertBatch(_ context.Context, lines []models.PurchaseOrderLine) ([]models.PurchaseOrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PurchaseOrderLine, len(lines))
	for i, line := range lines {
		if line.ID.IsZero() {
			line.ID = primitive.NewObjectID()
		}
		if _, exists := s.lines[line.ID]; exists {
			return nil, fmt.Errorf("duplicate line id %s", line.ID.Hex())
		}
		out[i] = line
	}
	for _, line := range out {
		s.lines[line.ID] = cloneLine(line)
	}
	return out, nil
}

func (s *MemoryOrderStore) FindByToken(_ context.Context, token string) ([]models.PurchaseOrderLine, error) {
	lines := s.filter(func(l models.PurchaseOrderLine) bool { return l.AccessToken == token })
	sortByID(lines, false)
	return lines, nil
}

func (s *MemoryOrderStore) FindByOwner(_ context.Context, ownerID string) ([]models.PurchaseOrderLine, error) {
	lines := s.filter(func(l models.PurchaseOrderLine) bool { return l.OwnerID == ownerID })
	sortByID(lines, true)
	return lines, nil
}

func (s *MemoryOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.PurchaseOrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, ok := s.lines[id]
	if !ok {
		return nil, ErrNotFound
	}
	line = cloneLine(line)
	return &line, nil
}

func (s *MemoryOrderStore) MarkSubmitted(_ context.Context, id primitive.ObjectID, token string, status models.LineStatus, file models.SubmittedFile) (*models.PurchaseOrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok || line.AccessToken != token {
		return nil, ErrNotFound
	}
	at := file.At
	line.Status = status
	line.FileURL = file.URL
	line.FileName = file.Name
	line.ContentType = file.ContentType
	line.SubmittedAt = &at
	line.UpdatedAt = at
	s.lines[id] = line

	line = cloneLine(line)
	return &line, nil
}

func (s *MemoryOrderStore) UpdateFields(_ context.Context, id primitive.ObjectID, ownerID string, set map[string]interface{}, unset []string) (*models.PurchaseOrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok || line.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	for field, value := range set {
		if err := setField(&line, field, value); err != nil {
			return nil, err
		}
	}
	for _, field := range unset {
		clearField(&line, field)
	}
	line.UpdatedAt = s.now()
	s.lines[id] = line

	line = cloneLine(line)
	return &line, nil
}

func (s *MemoryOrderStore) Delete(_ context.Context, id primitive.ObjectID, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok || line.OwnerID != ownerID {
		return false, nil
	}
	delete(s.lines, id)
	return true, nil
}

func (s *MemoryOrderStore) filter(keep func(models.PurchaseOrderLine) bool) []models.PurchaseOrderLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.PurchaseOrderLine{}
	for _, line := range s.lines {
		if keep(line) {
			out = append(out, cloneLine(line))
		}
	}
	return out
}

// ObjectIDs are time-prefixed and counter-suffixed, so hex order is insertion order.
func sortByID(lines []models.PurchaseOrderLine, desc bool) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].ID.Hex(), lines[j].ID.Hex()
		if desc {
			return a > b
		}
		return a < b
	})
}

func cloneLine(line models.PurchaseOrderLine) models.PurchaseOrderLine {
	if line.SubmittedAt != nil {
		at := *line.SubmittedAt
		line.SubmittedAt = &at
	}
	return line
}

func setField(line *models.PurchaseOrderLine, field string, value interface{}) error {
	str := func() (string, error) {
		switch v := value.(type) {
		case string:
			return v, nil
		case models.LineStatus:
			return string(v), nil
		default:
			return "", fmt.Errorf("field %s: unsupported value type %T", field, value)
		}
	}
	v, err := str()
	if err != nil {
		return err
	}
	switch field {
	case "supplierName":
		line.SupplierName = v
	case "poNumber":
		line.PONumber = v
	case "itemName":
		line.ItemName = v
	case "itemCode":
		line.ItemCode = v
	case "spec":
		line.Spec = v
	case "lotNo":
		line.LotNo = v
	case "quantity":
		line.Quantity = v
	case "manufacturer":
		line.Manufacturer = v
	case "status":
		line.Status = models.LineStatus(v)
	case "fileURL":
		line.FileURL = v
	case "fileName":
		line.FileName = v
	case "contentType":
		line.ContentType = v
	default:
		return fmt.Errorf("field %s is not writable", field)
	}
	return nil
}

func clearField(line *models.PurchaseOrderLine, field string) {
	switch field {
	case "fileURL":
		line.FileURL = ""
	case "fileName":
		line.FileName = ""
	case "contentType":
		line.ContentType = ""
	case "submittedAt":
		line.SubmittedAt = nil
	}
}

// MemoryUserStore keeps buyer accounts in a map keyed by lower-cased email.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := s.users[user.Email]; exists {
		return ErrDuplicateEmail
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.Email] = *user
	return nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
