package product

import (
	"context"
	"fmt"
	"time"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/tx"
	"rasoi/internal/domain"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/pkg/logger"
	"rasoi/pkg/numerator"
)

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	items     prepareditem.Repository
	txManager tx.Manager
	codes     *numerator.Service

	cascader domain.CostCascader
	audit    domain.AuditLogger
}

// NewService creates a new Product service.
func NewService(repo Repository, items prepareditem.Repository, txManager tx.Manager, codes *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  codes,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		items:          items,
		txManager:      txManager,
		codes:          codes,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// SetCascader wires the cost cascade, called once during bootstrap.
func (s *Service) SetCascader(c domain.CostCascader) { s.cascader = c }

// SetAuditLogger wires change auditing, called once during bootstrap.
func (s *Service) SetAuditLogger(a domain.AuditLogger) { s.audit = a }

func (s *Service) prepareForCreate(ctx context.Context, item *Product) error {
	if item.Code == "" {
		code, err := s.codes.GetNextNumber(ctx, numerator.DefaultConfig(CodePrefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}
	return nil
}

// GetComposition retrieves composition lines for a product.
func (s *Service) GetComposition(ctx context.Context, productID id.ID) ([]CompositionLine, error) {
	if exists, err := s.repo.Exists(ctx, productID); err != nil {
		return nil, err
	} else if !exists {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return s.repo.GetComposition(ctx, productID)
}

// UpdateComposition atomically replaces the product's composition and
// recomputes its cached cost in the same transaction.
func (s *Service) UpdateComposition(ctx context.Context, productID id.ID, lines []CompositionLine) error {
	if len(lines) == 0 {
		return apperror.NewValidation("composition must have at least one line")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, productID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("product", productID.String())
			}
			return err
		}

		if err := s.validateLines(ctx, lines); err != nil {
			return err
		}

		for i := range lines {
			if id.IsNil(lines[i].ID) {
				lines[i].ID = id.New()
			}
			lines[i].ProductID = productID
			lines[i].LineNo = i + 1
		}

		if err := s.repo.ReplaceComposition(ctx, productID, lines); err != nil {
			return fmt.Errorf("replace composition: %w", err)
		}

		if s.cascader != nil {
			if err := s.cascader.CascadeProductChange(ctx, productID); err != nil {
				return fmt.Errorf("cascade composition change: %w", err)
			}
		}

		if s.audit != nil {
			changes := map[string]any{"line_count": len(lines)}
			if err := s.audit.LogChange(ctx, "product", productID, domain.AuditActionUpdate, changes); err != nil {
				return fmt.Errorf("audit composition change: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product composition updated",
		"product_id", productID.String(),
		"lines", len(lines),
	)
	return nil
}

func (s *Service) validateLines(ctx context.Context, lines []CompositionLine) error {
	seen := make(map[id.ID]bool, len(lines))
	for i := range lines {
		line := &lines[i]
		if err := line.Validate(ctx); err != nil {
			return err
		}

		if seen[line.PreparedItemID] {
			return apperror.NewValidation("duplicate prepared item in composition").
				WithDetail("preparedItemId", line.PreparedItemID.String())
		}
		seen[line.PreparedItemID] = true

		item, err := s.items.GetByID(ctx, line.PreparedItemID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("composition references unknown prepared item").
					WithDetail("preparedItemId", line.PreparedItemID.String())
			}
			return err
		}
		if !item.Active || item.DeletionMark {
			return apperror.NewValidation("composition references inactive prepared item").
				WithDetail("preparedItemId", line.PreparedItemID.String()).
				WithDetail("preparedItem", item.Name)
		}
	}
	return nil
}

// ListActive retrieves all active products.
func (s *Service) ListActive(ctx context.Context) ([]*Product, error) {
	return s.repo.ListActive(ctx)
}
