package common

// File permission constants for consistent handling across the application
const (
	// FilePermissionSecure is used for the user-level config file
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for generated data and artifact files
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the config directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for data and artifact directories
	DirPermissionNormal = 0755
)
