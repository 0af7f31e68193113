package ports

import "github.com/alejandrodnm/tradeguard/internal/domain"

// InstrumentCatalog resolves broker/instrument contract metadata. Symbols
// not in the catalog are untradable.
type InstrumentCatalog interface {
	Lookup(symbol string) (domain.InstrumentInfo, bool)
}

// StaticCatalog is an InstrumentCatalog backed by a fixed map, typically
// loaded from configuration.
type StaticCatalog map[string]domain.InstrumentInfo

func (c StaticCatalog) Lookup(symbol string) (domain.InstrumentInfo, bool) {
	info, ok := c[symbol]
	return info, ok
}
