package controllers

import (
	"net/http"
	"time"

	"github.com/velvetcharms/storefront-backend/api/responses"
	"github.com/velvetcharms/storefront-backend/api/validators"
	"github.com/velvetcharms/storefront-backend/internal/contact"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

type contactResponse struct {
	OK     bool           `json:"ok"`
	Record map[string]any `json:"record"`
}

// ContactSubmit stores a contact-form post. Inputs other than name, email and
// message are kept as free-form fields and echoed back in the record.
func ContactSubmit(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}

		body := map[string]any{}
		if err := validators.DecodeLooseJSONBody(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub := contact.Submission{
			Name:       takeString(body, "name"),
			Email:      takeString(body, "email"),
			Message:    takeString(body, "message"),
			Fields:     types.Fields(body),
			RemoteAddr: r.RemoteAddr,
		}
		msg, err := svc.Submit(ctx, sub)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record := map[string]any{}
		for k, v := range msg.Fields {
			record[k] = v
		}
		record["id"] = msg.ID.String()
		record["time"] = msg.CreatedAt.Format(time.RFC3339Nano)
		record["name"] = msg.Name
		record["email"] = msg.Email
		record["message"] = msg.Message
		responses.WriteRaw(w, http.StatusOK, contactResponse{OK: true, Record: record})
	}
}

// takeString removes key from body and returns it when it holds a string.
func takeString(body map[string]any, key string) string {
	v, ok := body[key]
	if !ok {
		return ""
	}
	delete(body, key)
	s, _ := v.(string)
	return s
}
