package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"invoice-api/internal/extract"
	"invoice-api/internal/parser"
	"invoice-api/internal/shared/metrics"
	"invoice-api/internal/shared/storage/object"
	"invoice-api/internal/shared/telemetry"
	"invoice-api/internal/shared/util"
)

const defaultStepTimeout = 30 * time.Second

// Parser is the slice of the parsing client the pipeline needs.
type Parser interface {
	Parse(ctx context.Context, req parser.ParseRequest) (parser.Result, error)
}

// Service runs the upload pipeline and the record operations behind the API.
type Service struct {
	Store  object.ObjectStore
	Repo   Repo
	Parser Parser

	// StepTimeout bounds each storage and database call.
	StepTimeout time.Duration
	// TempDir is where uploads are spooled; empty means os.TempDir.
	TempDir string
	Now     func() time.Time
}

// ProcessInput is a validated upload handed over by the HTTP boundary.
type ProcessInput struct {
	OwnerID      string
	FileName     string
	MediaType    string
	DocumentType string
	CustomFields CustomFields
	Body         io.Reader
}

// Process stores the file, records it, has it parsed and saves the result.
// Steps run in order and are never retried. The spooled temp file is removed
// on every exit path.
func (s *Service) Process(ctx context.Context, in ProcessInput) (inv Invoice, err error) {
	if in.OwnerID == "" || in.FileName == "" || in.Body == nil {
		return Invoice{}, ErrInvalidInput
	}
	if in.DocumentType == "" {
		in.DocumentType = DefaultDocumentType
	}

	start := time.Now()
	log := telemetry.FromContext(ctx).WithFields(logrus.Fields{
		"file_name":     in.FileName,
		"media_type":    in.MediaType,
		"document_type": in.DocumentType,
	})
	metrics.IncPipelineStarted()
	defer func() {
		metrics.ObservePipelineDurationMs(float64(time.Since(start).Milliseconds()))
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			metrics.IncPipelineFailed(string(stepErr.Step))
			log.WithField("step", stepErr.Step).WithError(stepErr.Err).Error("pipeline.failed")
			return
		}
		if err == nil {
			metrics.IncPipelineCompleted()
			log.WithField("invoice_id", inv.ID).Info("pipeline.completed")
		}
	}()

	spool, size, err := s.spool(in.Body)
	if err != nil {
		return Invoice{}, stepFailed(StepUpload, "Failed to upload file: ", err)
	}
	defer release(spool, log)

	// The declared type stays authoritative; a mismatch is only logged.
	if sniffed := extract.Sniff(spool); sniffed != in.MediaType {
		log.WithField("sniffed_type", sniffed).Warn("pipeline.media_type_mismatch")
	}

	if in.MediaType == extract.MediaPDF {
		if summary, err := extract.InspectPDF(spool, size); err != nil {
			log.WithError(err).Warn("pipeline.pdf_unreadable")
		} else {
			log.WithFields(logrus.Fields{"pages": summary.Pages, "text_chars": summary.TextChars}).Info("pipeline.pdf_inspected")
		}
	}

	now := s.now()
	key := util.ObjectKey(in.OwnerID, in.FileName, now)

	if err := s.withStepTimeout(ctx, func(stepCtx context.Context) error {
		if _, err := spool.Seek(0, io.SeekStart); err != nil {
			return err
		}
		return s.Store.Put(stepCtx, key, in.MediaType, spool, size)
	}); err != nil {
		return Invoice{}, stepFailed(StepUpload, "Failed to upload file: ", err)
	}
	log = log.WithField("storage_key", key)
	log.Info("pipeline.stored")

	fileURL := s.Store.PublicURL(key)

	var created Invoice
	if err := s.withStepTimeout(ctx, func(stepCtx context.Context) error {
		var err error
		created, err = s.Repo.Insert(stepCtx, Invoice{
			UserID:       in.OwnerID,
			FileURL:      fileURL,
			FileName:     in.FileName,
			StorageKey:   key,
			DocumentType: in.DocumentType,
			CustomFields: in.CustomFields,
			Status:       StatusProcessing,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	}); err != nil {
		log.Warn("pipeline.blob_orphaned")
		return Invoice{}, stepFailed(StepCreate, "Failed to create invoice: ", err)
	}
	log = log.WithField("invoice_id", created.ID)
	log.Info("pipeline.recorded")

	customFields, err := encodeCustomFields(in.CustomFields)
	if err != nil {
		return Invoice{}, &StepError{Step: StepParse, Message: err.Error(), Err: err}
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return Invoice{}, &StepError{Step: StepParse, Message: err.Error(), Err: err}
	}
	result, err := s.Parser.Parse(ctx, parser.ParseRequest{
		FileName:     in.FileName,
		MediaType:    in.MediaType,
		DocumentType: in.DocumentType,
		CustomFields: customFields,
		Body:         spool,
	})
	if err != nil {
		var statusErr *parser.StatusError
		if errors.As(err, &statusErr) {
			log.WithField("llm_body", statusErr.Body).Warn("pipeline.parser_status")
			return Invoice{}, &StepError{Step: StepParse, Message: "LLM processing failed: " + statusErr.StatusText, Err: err}
		}
		return Invoice{}, &StepError{Step: StepParse, Message: err.Error(), Err: err}
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "LLM parsing failed"
		}
		return Invoice{}, &StepError{Step: StepParse, Message: msg, Err: errors.New(msg)}
	}
	log.Info("pipeline.parsed")

	var updated Invoice
	if err := s.withStepTimeout(ctx, func(stepCtx context.Context) error {
		var err error
		updated, err = s.Repo.UpdateByID(stepCtx, created.ID, Patch{
			ParsedData: result.Data,
			Status:     StatusCompleted,
			UpdatedAt:  s.now(),
		})
		return err
	}); err != nil {
		return Invoice{}, stepFailed(StepUpdate, "Failed to update invoice: ", err)
	}

	return updated, nil
}

// List returns a page of the owner's records and the unpaged total.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) ([]Invoice, int, ListQuery, error) {
	q = q.Normalize()
	var (
		items []Invoice
		total int
	)
	err := s.withStepTimeout(ctx, func(stepCtx context.Context) error {
		var err error
		items, total, err = s.Repo.ListByOwner(stepCtx, ownerID, q)
		return err
	})
	if err != nil {
		return nil, 0, q, err
	}
	if items == nil {
		items = []Invoice{}
	}
	return items, total, q, nil
}

// Get returns one record owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Invoice, error) {
	var inv Invoice
	err := s.withStepTimeout(ctx, func(stepCtx context.Context) error {
		var err error
		inv, err = s.Repo.GetByID(stepCtx, ownerID, id)
		return err
	})
	return inv, err
}

// Delete removes the stored blob and then the record. When the blob cannot be
// removed the record is kept and the error is returned.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	inv, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if inv.StorageKey != "" {
		if err := s.withStepTimeout(ctx, func(stepCtx context.Context) error {
			return s.Store.Remove(stepCtx, inv.StorageKey)
		}); err != nil {
			return fmt.Errorf("remove blob: %w", err)
		}
	}

	return s.withStepTimeout(ctx, func(stepCtx context.Context) error {
		return s.Repo.DeleteByID(stepCtx, ownerID, id)
	})
}

func (s *Service) withStepTimeout(ctx context.Context, fn func(context.Context) error) error {
	timeout := s.StepTimeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) spool(r io.Reader) (*os.File, int64, error) {
	f, err := os.CreateTemp(s.TempDir, "invoice-upload-*")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, 0, fmt.Errorf("spool upload: %w", err)
	}
	return f, size, nil
}

func release(f *os.File, log *logrus.Entry) {
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).WithField("temp_file", name).Warn("pipeline.temp_cleanup_failed")
	}
}

func stepFailed(step Step, prefix string, err error) *StepError {
	return &StepError{Step: step, Message: prefix + err.Error(), Err: err}
}

func encodeCustomFields(fields CustomFields) (json.RawMessage, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal([]CustomField(fields))
	if err != nil {
		return nil, fmt.Errorf("encode custom fields: %w", err)
	}
	return raw, nil
}
