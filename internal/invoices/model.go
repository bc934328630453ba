package invoices

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the processing state of an invoice record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	// StatusFailed is accepted by the schema but never written by the pipeline.
	StatusFailed Status = "failed"
)

// DefaultDocumentType is used when the client names no document type.
const DefaultDocumentType = "invoice"

// CustomField asks the parser to extract one extra named value.
type CustomField struct {
	Field       string `json:"field" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CustomFields is stored as a jsonb array; an empty list is NULL.
type CustomFields []CustomField

// Value implements driver.Valuer.
func (f CustomFields) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal([]CustomField(f))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (f *CustomFields) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("custom_fields: unsupported type %T", src)
	}
	var out []CustomField
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("custom_fields: %w", err)
	}
	if len(out) == 0 {
		*f = nil
		return nil
	}
	*f = out
	return nil
}

// Invoice is one uploaded document and its parsing outcome.
type Invoice struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	FileURL      string          `json:"file_url"`
	FileName     string          `json:"file_name"`
	StorageKey   string          `json:"-"`
	DocumentType string          `json:"document_type"`
	CustomFields CustomFields    `json:"custom_fields"`
	Status       Status          `json:"status"`
	ParsedData   json.RawMessage `json:"parsed_data"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Patch is the single mutation applied when parsing succeeds.
type Patch struct {
	ParsedData json.RawMessage
	Status     Status
	UpdatedAt  time.Time
}

// ListQuery scopes and pages a listing.
type ListQuery struct {
	Status string
	Limit  int
	Offset int
}

// DefaultListLimit applies when a listing asks for no positive limit.
const DefaultListLimit = 50

// Normalize fills in the listing defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
