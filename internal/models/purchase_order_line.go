// internal/models/purchase_order_line.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineStatus is the upload state of one purchase-order line.
type LineStatus string

const (
	StatusPendingUpload   LineStatus = "PENDING_UPLOAD"
	StatusPendingApproval LineStatus = "PENDING_APPROVAL"
	StatusDone            LineStatus = "DONE"
)

var lineStatusRank = map[LineStatus]int{
	StatusPendingUpload:   0,
	StatusPendingApproval: 1,
	StatusDone:            2,
}

func (s LineStatus) Valid() bool {
	_, ok := lineStatusRank[s]
	return ok
}

// Submitted is true once a supplier file has been attached.
func (s LineStatus) Submitted() bool {
	return s == StatusPendingApproval || s == StatusDone
}

// CanAdvanceTo reports whether a supplier upload may move a line from s to next.
// Staying in a submitted status is a re-submission that replaces the file.
func (s LineStatus) CanAdvanceTo(next LineStatus) bool {
	from, ok := lineStatusRank[s]
	if !ok {
		return false
	}
	to, ok := lineStatusRank[next]
	if !ok {
		return false
	}
	if s == next {
		return s.Submitted()
	}
	return to > from
}

// PurchaseOrderLine is one ordered item waiting for a certificate of analysis.
type PurchaseOrderLine struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID      string             `bson:"ownerID" json:"ownerID"`
	SupplierName string             `bson:"supplierName" json:"supplierName"`
	PONumber     string             `bson:"poNumber" json:"poNumber"`
	ItemName     string             `bson:"itemName" json:"itemName"`
	ItemCode     string             `bson:"itemCode" json:"itemCode"`
	Spec         string             `bson:"spec" json:"spec"`
	LotNo        string             `bson:"lotNo" json:"lotNo"`
	Quantity     string             `bson:"quantity" json:"quantity"`
	Manufacturer string             `bson:"manufacturer" json:"manufacturer"`
	AccessToken  string             `bson:"accessToken" json:"accessToken"`
	Status       LineStatus         `bson:"status" json:"status"`
	FileURL      string             `bson:"fileURL,omitempty" json:"fileURL,omitempty"`
	FileName     string             `bson:"fileName,omitempty" json:"fileName,omitempty"`
	ContentType  string             `bson:"contentType,omitempty" json:"contentType,omitempty"`
	SubmittedAt  *time.Time         `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SubmittedFile is the metadata stamped on a line after a successful upload.
type SubmittedFile struct {
	URL         string
	Name        string
	ContentType string
	At          time.Time
}

// Editable bson field names a buyer may change from the dashboard, keyed by json name.
var EditableLineFields = map[string]string{
	"supplierName": "supplierName",
	"poNumber":     "poNumber",
	"itemName":     "itemName",
	"itemCode":     "itemCode",
	"spec":         "spec",
	"lotNo":        "lotNo",
	"quantity":     "quantity",
	"manufacturer": "manufacturer",
	"status":       "status",
	"fileURL":      "fileURL",
	"fileName":     "fileName",
}
