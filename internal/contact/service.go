package contact

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/velvetcharms/storefront-backend/pkg/db"
	"github.com/velvetcharms/storefront-backend/pkg/db/models"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

// Submission is a decoded contact-form body. Fields holds any extra inputs the
// form posted alongside the required ones.
type Submission struct {
	Name       string       `json:"name" validate:"required,max=200"`
	Email      string       `json:"email" validate:"required,email,max=320"`
	Message    string       `json:"message" validate:"required,max=5000"`
	Fields     types.Fields `json:"-"`
	RemoteAddr string       `json:"-"`
}

// Service accepts contact-form submissions.
type Service interface {
	Submit(ctx context.Context, sub Submission) (*models.ContactMessage, error)
	Recent(ctx context.Context, limit int) ([]models.ContactMessage, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewService wires contact dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "contact repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		validate: validator.New(),
		logger:   logg,
		now:      time.Now,
		newID:    uuid.New,
	}, nil
}

func (s *service) Submit(ctx context.Context, sub Submission) (*models.ContactMessage, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Message = strings.TrimSpace(sub.Message)

	if err := s.validate.Struct(sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contact submission").
			WithDetails(fieldErrors(err))
	}

	fields := sub.Fields
	if fields == nil {
		fields = types.Fields{}
	}
	msg := &models.ContactMessage{
		ID:         s.newID(),
		Name:       sub.Name,
		Email:      sub.Email,
		Message:    sub.Message,
		Fields:     fields,
		RemoteAddr: sub.RemoteAddr,
		CreatedAt:  s.now().UTC(),
	}
	err := s.repo.Create(ctx, msg)
	if db.IsUniqueViolation(err, "") {
		msg.ID = s.newID()
		err = s.repo.Create(ctx, msg)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store contact submission")
	}

	ctx = s.logger.WithField(ctx, "contact_id", msg.ID.String())
	s.logger.Info(ctx, "contact submission stored")
	return msg, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contact submissions")
	}
	return rows, nil
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}
