package rate

import (
	"context"

	"github.com/xraph/faktura/id"
)

// Lookup is the read-only view the costing engine needs.
type Lookup interface {
	GetMaterial(ctx context.Context, tenantID string, materialID id.ID) (*Material, error)
	GetPersonnel(ctx context.Context, tenantID string, personnelID id.ID) (*Personnel, error)
}

type Store interface {
	Lookup
	SaveMaterial(ctx context.Context, m *Material) error
	SavePersonnel(ctx context.Context, p *Personnel) error
}
