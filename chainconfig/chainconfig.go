// Package chainconfig exposes the small set of named integer parameters the
// dispatch core reads out-of-band from gas-schedule logic: per-precompile
// gas prices and the EIP-2929/3529 access-list and refund constants. It is
// a grouped lookup rather than dozens of individual fields so a host can
// swap in a different schedule without touching the vm package.
package chainconfig

// View is a read-only named-parameter source. Param returns (value, true)
// if group/name is known, or (0, false) otherwise.
type View interface {
	Param(group, name string) (int64, bool)
}

// defaultView is a map-backed View seeded with this module's fixed
// parameter set.
type defaultView struct {
	groups map[string]map[string]int64
}

// Default returns the View used when no host-supplied configuration is
// provided: the gas prices and EIP-2929/3529 schedule this module's gas
// accounting is written against.
func Default() View {
	return &defaultView{groups: map[string]map[string]int64{
		"gasPrices": {
			"expByte":      50,
			"sha256":       60,
			"sha256Word":   12,
			"p256verify":   3450,
		},
		"eip2929": {
			"coldAccountAccess": 2600,
			"coldSloadCost":     2100,
			"warmStorageRead":   100,
		},
		"eip3529": {
			"sstoreClearsScheduleRefund": 4800,
			"maxRefundQuotient":          5,
		},
	}}
}

func (v *defaultView) Param(group, name string) (int64, bool) {
	g, ok := v.groups[group]
	if !ok {
		return 0, false
	}
	val, ok := g[name]
	return val, ok
}

// MustParam panics if group/name is not set; for startup-time wiring where
// a missing parameter is a programming error, not a runtime condition.
func MustParam(v View, group, name string) int64 {
	val, ok := v.Param(group, name)
	if !ok {
		panic("chainconfig: missing parameter " + group + "." + name)
	}
	return val
}
