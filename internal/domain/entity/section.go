package entity

// Section is a named data domain with its own fetch status and gating rules.
type Section string

const (
	SectionDefiBalancerBalances Section = "defi_balancer_balances"
	SectionDefiBalancerEvents   Section = "defi_balancer_events"
)

// Module is an optional feature area of the portfolio backend.
type Module string

const (
	ModuleBalancer   Module = "balancer"
	ModuleUniswap    Module = "uniswap"
	ModuleSushiswap  Module = "sushiswap"
	ModuleCompound   Module = "compound"
	ModuleAave       Module = "aave"
	ModuleMakerDAO   Module = "makerdao_dsr"
	ModuleYearnVault Module = "yearn_vaults"
)

// FetchStatus is the lifecycle state of a section's data.
type FetchStatus int

const (
	StatusNone FetchStatus = iota
	StatusLoading
	StatusLoaded
	StatusError
)

// String returns the lower-case name used in logs and API responses.
func (s FetchStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "none"
	}
}

// MarshalText lets FetchStatus be used as a JSON value and map key.
func (s FetchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Requirements describe the gating a section is subject to.
type Requirements struct {
	Premium bool
	Module  Module
}
