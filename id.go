package faktura

import "github.com/xraph/faktura/id"

// ID is the identifier type of every faktura entity.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
