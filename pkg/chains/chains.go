package chains

import (
	"fmt"
	"strings"
)

// Chain identifies a network the protocol is deployed on. Values match the
// chain field returned by the subgraph, lowercased.
type Chain string

const (
	Mainnet   Chain = "mainnet"
	Arbitrum  Chain = "arbitrum"
	Optimism  Chain = "optimism"
	Polygon   Chain = "polygon"
	Gnosis    Chain = "gnosis"
	Avalanche Chain = "avalanche"
	Base      Chain = "base"
)

var known = map[Chain]bool{
	Mainnet:   true,
	Arbitrum:  true,
	Optimism:  true,
	Polygon:   true,
	Gnosis:    true,
	Avalanche: true,
	Base:      true,
}

// Parse normalizes a chain string from an external source (subgraph, config)
// into a Chain. Unknown networks are an error: a gauge on a network this
// service cannot route is a configuration problem, not data to pass through.
func Parse(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	if !known[c] {
		return "", fmt.Errorf("unknown chain %q", s)
	}
	return c, nil
}

func (c Chain) String() string {
	return string(c)
}
