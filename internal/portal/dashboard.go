package portal

import (
	"context"
	"errors"
	"strings"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/database"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/ingest"
	"po-bridge-api-server/internal/models"
)

// Filter narrows the dashboard. Empty fields match everything.
type Filter struct {
	Status   string
	Supplier string
}

// Dashboard lists the buyer's lines, newest first.
func (s *Service) Dashboard(ctx context.Context, sess *identity.Session, filter Filter) ([]LineView, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	status := models.LineStatus(strings.ToUpper(strings.TrimSpace(filter.Status)))
	if status != "" && !status.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown status %q", filter.Status)
	}
	supplier := strings.ToLower(strings.TrimSpace(filter.Supplier))

	lines, err := s.orders.FindByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "loading orders")
	}

	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		if status != "" && line.Status != status {
			continue
		}
		if supplier != "" && !strings.Contains(strings.ToLower(line.SupplierName), supplier) {
			continue
		}
		views = append(views, s.view(line))
	}
	return views, nil
}

type SupplierSummary struct {
	SupplierName   string  `json:"supplierName"`
	AccessToken    string  `json:"accessToken"`
	SecretLink     string  `json:"secretLink"`
	Total          int     `json:"total"`
	Submitted      int     `json:"submitted"`
	Done           int     `json:"done"`
	CompletionRate float64 `json:"completionRate"`
}

type Summary struct {
	Total     int                       `json:"total"`
	ByStatus  map[models.LineStatus]int `json:"byStatus"`
	Suppliers []SupplierSummary         `json:"suppliers"`
}

// Summary counts lines per status and per supplier batch. Batches keep dashboard order.
func (s *Service) Summary(ctx context.Context, sess *identity.Session) (*Summary, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	lines, err := s.orders.FindByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "loading orders")
	}

	summary := &Summary{
		Total: len(lines),
		ByStatus: map[models.LineStatus]int{
			models.StatusPendingUpload:   0,
			models.StatusPendingApproval: 0,
			models.StatusDone:            0,
		},
		Suppliers: []SupplierSummary{},
	}
	index := map[string]int{}
	for _, line := range lines {
		summary.ByStatus[line.Status]++

		i, ok := index[line.AccessToken]
		if !ok {
			i = len(summary.Suppliers)
			index[line.AccessToken] = i
			summary.Suppliers = append(summary.Suppliers, SupplierSummary{
				SupplierName: line.SupplierName,
				AccessToken:  line.AccessToken,
				SecretLink:   s.Link(line.AccessToken),
			})
		}
		sup := &summary.Suppliers[i]
		sup.Total++
		if line.Status.Submitted() {
			sup.Submitted++
		}
		if line.Status == models.StatusDone {
			sup.Done++
		}
	}
	for i := range summary.Suppliers {
		sup := &summary.Suppliers[i]
		sup.CompletionRate = float64(sup.Submitted) / float64(sup.Total)
	}
	return summary, nil
}

// EditSet is a batch of dashboard edits keyed by line id.
type EditSet struct {
	Updates map[string]map[string]string `json:"updates"`
	Deletes []string                     `json:"deletes"`
}

type EditResult struct {
	Updated []LineView `json:"updated"`
	Deleted int        `json:"deleted"`
	Missing []string   `json:"missing"`
}

var immutableFields = map[string]bool{
	"id":          true,
	"_id":         true,
	"accessToken": true,
	"ownerID":     true,
	"createdAt":   true,
	"updatedAt":   true,
	"submittedAt": true,
	"contentType": true,
}

var fileFields = []string{"fileURL", "fileName", "contentType", "submittedAt"}

type pendingUpdate struct {
	id    string
	set   map[string]interface{}
	unset []string
}

// ApplyEdits validates the whole set before writing anything, then issues one update per
// edited id and one delete per deleted id, each restricted to the buyer's own lines.
// A line in both maps is deleted. Ids that no longer exist are reported in Missing.
func (s *Service) ApplyEdits(ctx context.Context, sess *identity.Session, edits EditSet) (*EditResult, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	deleting := map[string]bool{}
	for _, id := range edits.Deletes {
		if _, err := parseID(id); err != nil {
			return nil, err
		}
		deleting[strings.TrimSpace(id)] = true
	}

	var updates []pendingUpdate
	for id, fields := range edits.Updates {
		if _, err := parseID(id); err != nil {
			return nil, err
		}
		if deleting[strings.TrimSpace(id)] || len(fields) == 0 {
			continue
		}
		set, unset, err := buildUpdate(fields)
		if err != nil {
			return nil, err
		}
		updates = append(updates, pendingUpdate{id: id, set: set, unset: unset})
	}

	result := &EditResult{Updated: []LineView{}, Missing: []string{}}
	for _, u := range updates {
		oid, _ := parseID(u.id)
		line, err := s.orders.UpdateFields(ctx, oid, sess.UserID, u.set, u.unset)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				result.Missing = append(result.Missing, u.id)
				continue
			}
			return nil, apperr.Wrap(apperr.KindDependency, err, "updating line")
		}
		result.Updated = append(result.Updated, s.view(*line))
	}
	for id := range deleting {
		oid, _ := parseID(id)
		deleted, err := s.orders.Delete(ctx, oid, sess.UserID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindDependency, err, "deleting line")
		}
		if deleted {
			result.Deleted++
		} else {
			result.Missing = append(result.Missing, id)
		}
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"user_id": sess.UserID,
		"updated": len(result.Updated),
		"deleted": result.Deleted,
	}), "dashboard edits applied")
	return result, nil
}

func buildUpdate(fields map[string]string) (map[string]interface{}, []string, error) {
	set := map[string]interface{}{}
	var unset []string
	for name, raw := range fields {
		if immutableFields[name] {
			return nil, nil, apperr.Newf(apperr.KindValidation, "field %q cannot be edited", name).
				WithDetails(map[string]string{"field": name})
		}
		column, ok := models.EditableLineFields[name]
		if !ok {
			return nil, nil, apperr.Newf(apperr.KindValidation, "unknown field %q", name).
				WithDetails(map[string]string{"field": name})
		}
		value := strings.TrimSpace(raw)
		switch name {
		case "status":
			status := models.LineStatus(strings.ToUpper(value))
			if !status.Valid() {
				return nil, nil, apperr.Newf(apperr.KindValidation, "unknown status %q", raw).
					WithDetails(map[string]string{"field": name})
			}
			set[column] = status
		case "supplierName":
			if value == "" {
				return nil, nil, apperr.New(apperr.KindValidation, "supplier name cannot be empty").
					WithDetails(map[string]string{"field": name})
			}
			set[column] = ingest.NormalizeSupplier(value)
		default:
			set[column] = value
		}
	}

	// Resetting to PENDING_UPLOAD drops the previous submission.
	if status, ok := set["status"].(models.LineStatus); ok && status == models.StatusPendingUpload {
		for _, f := range fileFields {
			delete(set, f)
		}
		unset = append(unset, fileFields...)
	}
	return set, unset, nil
}

// Delete removes one of the buyer's lines. Deleting an absent line is not an error.
func (s *Service) Delete(ctx context.Context, sess *identity.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if _, err := s.orders.Delete(ctx, oid, sess.UserID); err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "deleting line")
	}
	return nil
}

// Approve moves a line awaiting review to DONE.
func (s *Service) Approve(ctx context.Context, sess *identity.Session, id string) (*LineView, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	line, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "line not found")
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "loading line")
	}
	if line.OwnerID != sess.UserID {
		return nil, apperr.New(apperr.KindNotFound, "line not found")
	}
	if line.Status != models.StatusPendingApproval {
		return nil, apperr.Newf(apperr.KindConflict, "line is %s, only lines awaiting approval can be approved", line.Status)
	}

	updated, err := s.orders.UpdateFields(ctx, oid, sess.UserID, map[string]interface{}{"status": models.StatusDone}, nil)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "line not found")
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "approving line")
	}
	view := s.view(*updated)
	return &view, nil
}
