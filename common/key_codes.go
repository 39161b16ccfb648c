package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyD     = 68  // D key (ASCII), toggles the debug pass
	KeyO     = 79  // O key (ASCII), toggles occlusion culling
	KeyP     = 80  // P key (ASCII), pauses and resumes the render loop
	KeyR     = 82  // R key (ASCII), prints the pool statistics report
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)
