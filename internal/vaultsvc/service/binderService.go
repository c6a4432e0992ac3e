package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

const maxSleeveStyleLength = 32

type binderRepo interface {
	CreateBinder(ctx context.Context, b *models.Binder) error
	ListBindersByOwner(ctx context.Context, ownerID int64) ([]*models.Binder, error)
	GetBinder(ctx context.Context, binderID int64) (*models.Binder, error)
	UpdateBinder(ctx context.Context, ownerID, binderID int64, p models.BinderPatch) (*models.Binder, error)
	DeleteBinder(ctx context.Context, ownerID, binderID int64) error
}

// BinderService manages binders themselves; placement lives in BinderCardService.
type BinderService struct {
	store  binderRepo
	events EventPublisher
}

func NewBinderService(store binderRepo, events EventPublisher) *BinderService {
	return &BinderService{store: store, events: publisherOrNoop(events)}
}

func (s *BinderService) CreateBinder(ctx context.Context, ownerID int64, b models.Binder) (*models.Binder, error) {
	b.OwnerID = ownerID
	b.Name = strings.TrimSpace(b.Name)
	if b.Color == "" {
		b.Color = models.DefaultBinderColor
	}
	if b.SleeveStyle == "" {
		b.SleeveStyle = models.DefaultSleeveStyle
	}

	if err := validateBinderFields(&b.Name, &b.Color, &b.SleeveStyle); err != nil {
		return nil, err
	}

	if err := s.store.CreateBinder(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BinderService) ListBinders(ctx context.Context, ownerID int64) ([]*models.Binder, error) {
	return s.store.ListBindersByOwner(ctx, ownerID)
}

// GetBinder returns the binder when the caller owns it or it is public.
func (s *BinderService) GetBinder(ctx context.Context, viewerID, binderID int64) (*models.Binder, error) {
	b, err := s.store.GetBinder(ctx, binderID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != viewerID && !b.IsPublic {
		return nil, models.ErrNotFound
	}
	return b, nil
}

func (s *BinderService) UpdateBinder(ctx context.Context, ownerID, binderID int64, p models.BinderPatch) (*models.Binder, error) {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
	}
	if err := validateBinderFields(p.Name, p.Color, p.SleeveStyle); err != nil {
		return nil, err
	}
	return s.store.UpdateBinder(ctx, ownerID, binderID, p)
}

func (s *BinderService) DeleteBinder(ctx context.Context, ownerID, binderID int64) error {
	if err := s.store.DeleteBinder(ctx, ownerID, binderID); err != nil {
		return err
	}

	s.events.PublishBinderEvent(comm.TypeBinderDeleted, comm.BinderEvent{
		OwnerID:  ownerID,
		BinderID: binderID,
		At:       time.Now().UTC(),
	})
	return nil
}

// validateBinderFields checks the fields that are set; nil means "unchanged".
func validateBinderFields(name, color, sleeve *string) error {
	if name != nil {
		if *name == "" {
			return models.Invalid("name", "is required")
		}
		if len(*name) > models.MaxBinderNameLength {
			return models.Invalid("name", "must be at most %d characters", models.MaxBinderNameLength)
		}
	}
	if color != nil && !colorRe.MatchString(*color) {
		return models.Invalid("color", "must look like #rrggbb")
	}
	if sleeve != nil {
		if strings.TrimSpace(*sleeve) == "" {
			return models.Invalid("sleeve_style", "must not be empty")
		}
		if len(*sleeve) > maxSleeveStyleLength {
			return models.Invalid("sleeve_style", "must be at most %d characters", maxSleeveStyleLength)
		}
	}
	return nil
}
