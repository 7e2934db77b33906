package chains

// TypeNameMapping maps on-chain gauge-type names to chains. It is the fallback
// used when a gauge has no subgraph record: the controller's type labels are the
// only routing signal left, and an unmapped label must fail the run rather than
// guess (the reconciler treats a miss as fatal).
type TypeNameMapping map[string]Chain

// DefaultTypeNameMapping covers the gauge-type labels the controller is known
// to carry. "veSOLS" is the legacy label used before per-network types existed
// and routes to mainnet like the modern "Ethereum" label.
func DefaultTypeNameMapping() TypeNameMapping {
	return TypeNameMapping{
		"Ethereum":  Mainnet,
		"veSOLS":    Mainnet,
		"Arbitrum":  Arbitrum,
		"Optimism":  Optimism,
		"Polygon":   Polygon,
		"Gnosis":    Gnosis,
		"Avalanche": Avalanche,
		"Base":      Base,
	}
}

// Resolve returns the chain for a gauge-type name, reporting whether the name
// is mapped at all.
func (m TypeNameMapping) Resolve(typeName string) (Chain, bool) {
	c, ok := m[typeName]
	return c, ok
}
