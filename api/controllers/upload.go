package controllers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/internal/uploads"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

const (
	uploadFileField = "file"
	// room for multipart framing and small text fields on top of the file limit
	multipartOverhead = 1 << 20
	maxFieldBytes     = 64 << 10
)

// Upload streams a multipart form: text parts become fields, the "file" part is
// stored through the uploads service. Fields posted before the file are
// recorded with it; later ones only appear in the response.
func Upload(svc uploads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "multipart/form-data body required"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartOverhead)
		reader, err := r.MultipartReader()
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		fields := types.Fields{}
		var result *uploads.Result
		for {
			part, err := reader.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, partError(err))
				return
			}

			name := part.FormName()
			switch {
			case name == uploadFileField && part.FileName() != "" && result == nil:
				result, err = svc.Save(ctx, uploads.Input{Filename: part.FileName(), Body: part, Fields: fields})
			case part.FileName() == "" && name != "":
				err = readField(part, fields)
			}
			_ = part.Close()
			if err != nil {
				responses.WriteError(ctx, logg, w, partError(err))
				return
			}
		}

		if result == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
				WithDetails(map[string]any{"field": uploadFileField}))
			return
		}
		result.Fields = fields
		responses.WriteRaw(w, http.StatusOK, result)
	}
}

func readField(part *multipart.Part, fields types.Fields) error {
	raw, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return err
	}
	if len(raw) > maxFieldBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, "form field too large").
			WithDetails(map[string]any{"field": part.FormName()})
	}
	value := strings.TrimSpace(string(raw))
	switch existing := fields[part.FormName()].(type) {
	case nil:
		fields[part.FormName()] = value
	case string:
		fields[part.FormName()] = []string{existing, value}
	case []string:
		fields[part.FormName()] = append(existing, value)
	}
	return nil
}

func partError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, "upload too large").
			WithDetails(map[string]any{"maxBytes": maxErr.Limit})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
}
