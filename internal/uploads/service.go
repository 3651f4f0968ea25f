package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/db/models"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

const sniffLen = 3072

// Input is one received file plus the form fields posted with it.
type Input struct {
	Filename string
	Body     io.Reader
	Fields   types.Fields
}

// File describes a stored upload.
type File struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	ContentType  string `json:"contentType"`
}

// Result is returned to the client after a successful upload.
type Result struct {
	OK     bool         `json:"ok"`
	ID     string       `json:"id"`
	File   File         `json:"file"`
	Fields types.Fields `json:"fields"`
}

// Service stores uploaded files and records them.
type Service interface {
	Save(ctx context.Context, in Input) (*Result, error)
	MaxBytes() int64
}

type service struct {
	repo     Repository
	dir      string
	maxBytes int64
	logger   *logger.Logger
	now      func() time.Time
}

// NewService wires uploads dependencies. An empty upload dir resolves to the
// OS temp directory.
func NewService(repo Repository, cfg config.UploadConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "uploads repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create upload dir")
	}
	return &service{
		repo:     repo,
		dir:      dir,
		maxBytes: cfg.MaxBytes(),
		logger:   logg,
		now:      time.Now,
	}, nil
}

func (s *service) MaxBytes() int64 { return s.maxBytes }

func (s *service) Save(ctx context.Context, in Input) (*Result, error) {
	if in.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	original := filepath.Base(strings.TrimSpace(in.Filename))
	if original == "." || original == string(filepath.Separator) {
		original = ""
	}

	limited := io.LimitReader(in.Body, s.maxBytes+1)
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(limited, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, s.readFailure(err)
	}
	head = head[:n]
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	detected := mimetype.Detect(head)

	id := uuid.New()
	stored := filepath.Join(s.dir, id.String()+detected.Extension())
	size, err := s.write(stored, io.MultiReader(bytes.NewReader(head), limited))
	if err != nil {
		return nil, err
	}

	fields := in.Fields
	if fields == nil {
		fields = types.Fields{}
	}
	record := &models.Upload{
		ID:           id,
		OriginalName: original,
		StoredPath:   stored,
		ContentType:  detected.String(),
		SizeBytes:    size,
		Fields:       fields,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		_ = os.Remove(stored)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record upload")
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"upload_id":    id.String(),
		"content_type": record.ContentType,
		"size_bytes":   size,
	}), "upload stored")

	return &Result{
		OK: true,
		ID: id.String(),
		File: File{
			Name:         filepath.Base(stored),
			OriginalName: original,
			Size:         size,
			Path:         stored,
			ContentType:  record.ContentType,
		},
		Fields: fields,
	}, nil
}

func (s *service) write(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create upload file")
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return 0, s.readFailure(copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, closeErr, "close upload file")
	case size > s.maxBytes:
		_ = os.Remove(path)
		return 0, s.tooLarge(nil)
	}
	return size, nil
}

func (s *service) tooLarge(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, cause, "file exceeds upload limit").
		WithDetails(map[string]any{"maxBytes": s.maxBytes})
}

func (s *service) readFailure(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return s.tooLarge(err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
}
