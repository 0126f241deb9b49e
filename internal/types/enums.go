package types

// Shared enable/disable status used by persons, students, curriculum rows and
// course versions.
const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)
