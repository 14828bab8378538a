package workflow

// Directory roles recognized by the approval engine.
const (
	RoleIntern         = "INTERN"
	RoleEmployee       = "EMPLOYEE"
	RoleTeamLead       = "TEAM_LEAD"
	RoleManager        = "MANAGER"
	RoleHR             = "HR"
	RoleDepartmentHead = "DEPARTMENT_HEAD"
	RoleAdmin          = "ADMIN"
	RoleSuperAdmin     = "SUPER_ADMIN"
)

// roleApprovalLevels is the single authoritative role-to-level table. The
// legacy system repeated this mapping in every approval screen; here every
// eligibility check goes through RoleApprovalLevel.
var roleApprovalLevels = map[string]int{
	RoleTeamLead:   1,
	RoleManager:    2,
	RoleHR:         3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// RoleApprovalLevel returns the administrative level of a role, or 0 when
// the role carries no approval authority.
func RoleApprovalLevel(role string) int {
	return roleApprovalLevels[role]
}

// HasAdminOverride reports whether a role may approve or reject at any
// pending level, bypassing the strict level ordering.
func HasAdminOverride(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// IsManagerOrAbove reports whether a role may decide deletion requests.
func IsManagerOrAbove(role string) bool {
	return RoleApprovalLevel(role) >= roleApprovalLevels[RoleManager]
}

// Duration categories used by the position-based workflow table.
const (
	DurationShort  = "SHORT"  // 0.5 - 2 days
	DurationMedium = "MEDIUM" // 3 - 6 days
	DurationLong   = "LONG"   // 7+ days
)

func DurationCategory(days float64) string {
	switch {
	case days <= 2:
		return DurationShort
	case days <= 6:
		return DurationMedium
	default:
		return DurationLong
	}
}
