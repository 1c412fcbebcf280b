package faktura

import (
	"context"
	"fmt"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/rate"
)

// SaveMaterial creates or replaces a material rate of the context tenant.
// Offers pick up the new price on their next costing recalculation unless
// their snapshot is locked.
func (e *Engine) SaveMaterial(ctx context.Context, m *rate.Material) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	if m.Name == "" {
		return ValidationError{Field: "name", Message: "must not be empty"}
	}
	if m.UnitPrice.IsNegative() {
		return ValidationError{Field: "unit_price", Message: "must not be negative"}
	}

	m.TenantID = tenantID
	if m.ID.IsNil() {
		m.ID = id.NewMaterialID()
	}
	if m.CreatedAt.IsZero() {
		m.Entity = NewEntity(e.now(), ActorFrom(ctx))
	} else {
		m.Touch(e.now())
	}
	if err := e.store.SaveMaterial(ctx, m); err != nil {
		return fmt.Errorf("faktura: save material: %w", err)
	}
	return nil
}

// SavePersonnel creates or replaces a personnel rate of the context tenant.
func (e *Engine) SavePersonnel(ctx context.Context, p *rate.Personnel) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	if p.Name == "" {
		return ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.HourlyRate.IsNegative() {
		return ValidationError{Field: "hourly_rate", Message: "must not be negative"}
	}

	p.TenantID = tenantID
	if p.ID.IsNil() {
		p.ID = id.NewPersonnelID()
	}
	if p.CreatedAt.IsZero() {
		p.Entity = NewEntity(e.now(), ActorFrom(ctx))
	} else {
		p.Touch(e.now())
	}
	if err := e.store.SavePersonnel(ctx, p); err != nil {
		return fmt.Errorf("faktura: save personnel: %w", err)
	}
	return nil
}

// GetMaterial returns a material rate of the context tenant.
func (e *Engine) GetMaterial(ctx context.Context, materialID id.ID) (*rate.Material, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.GetMaterial(ctx, tenantID, materialID)
}

// GetPersonnel returns a personnel rate of the context tenant.
func (e *Engine) GetPersonnel(ctx context.Context, personnelID id.ID) (*rate.Personnel, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.GetPersonnel(ctx, tenantID, personnelID)
}
