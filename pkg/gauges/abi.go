package gauges

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Canonical signatures for every remote call the registry reader issues.
// gauge_relative_weight is overloaded on the controller (with and without a
// time argument); calls always select by full signature so the one-argument
// form is used.
const (
	sigGaugeCount     = "n_gauges()"
	sigTypeCount      = "n_gauge_types()"
	sigTypeName       = "gauge_type_names(int128)"
	sigGaugeAt        = "gauges(uint256)"
	sigGaugeType      = "gauge_types(address)"
	sigRelativeWeight = "gauge_relative_weight(address)"
	sigIsKilled       = "is_killed()"
	sigWeightCap      = "getRelativeWeightCap()"
)

// registryABIJSON merges the controller methods with the per-gauge methods
// (is_killed, getRelativeWeightCap) so one Caller serves the whole snapshot.
const registryABIJSON = `[
  {"name":"n_gauges","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int128"}]},
  {"name":"n_gauge_types","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int128"}]},
  {"name":"gauge_type_names","type":"function","stateMutability":"view","inputs":[{"name":"idx","type":"int128"}],"outputs":[{"name":"","type":"string"}]},
  {"name":"gauges","type":"function","stateMutability":"view","inputs":[{"name":"idx","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"name":"gauge_types","type":"function","stateMutability":"view","inputs":[{"name":"gauge","type":"address"}],"outputs":[{"name":"","type":"int128"}]},
  {"name":"gauge_relative_weight","type":"function","stateMutability":"view","inputs":[{"name":"gauge","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"gauge_relative_weight","type":"function","stateMutability":"view","inputs":[{"name":"gauge","type":"address"},{"name":"time","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"is_killed","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"name":"getRelativeWeightCap","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// RegistryABI parses the merged controller+gauge interface.
func RegistryABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABIJSON))
}
