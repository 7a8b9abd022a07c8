package user

// Operation names a mutating entry point gated by role.
type Operation string

const (
	OpSaveTransaction   Operation = "save_transaction"
	OpDeleteTransaction Operation = "delete_transaction"
	OpTogglePaid        Operation = "toggle_paid"
	OpUpdateRates       Operation = "update_rates"
	OpManageUsers       Operation = "manage_users"
	OpUpdateConfig      Operation = "update_config"
)

// grants is the single policy table consulted before every mutating call.
// Viewers hold no grants at all; reads are open to any authenticated role.
var grants = map[Role]map[Operation]struct{}{
	RoleAdmin: {
		OpSaveTransaction:   {},
		OpDeleteTransaction: {},
		OpTogglePaid:        {},
		OpUpdateRates:       {},
	},
	RoleSuperAdmin: {
		OpSaveTransaction:   {},
		OpDeleteTransaction: {},
		OpTogglePaid:        {},
		OpUpdateRates:       {},
		OpManageUsers:       {},
		OpUpdateConfig:      {},
	},
}

// Can reports whether the role is allowed to perform op.
func (r Role) Can(op Operation) bool {
	_, ok := grants[r][op]
	return ok
}
