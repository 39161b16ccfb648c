package cull

// Occluder decides whether an object that survived frustum and distance culling is hidden
// behind other geometry, for example from the previous frame's depth pyramid.
type Occluder interface {
	// Supported reports whether the occluder can answer queries this frame. The stage is skipped
	// when it returns false.
	Supported() bool

	// Occluded reports whether obj is fully hidden from cam.
	Occluded(obj Object, cam CameraView) bool
}

// NopOccluder is the default Occluder. It reports itself unsupported so the stage is skipped.
type NopOccluder struct{}

var _ Occluder = NopOccluder{}

// Supported always returns false.
func (NopOccluder) Supported() bool {
	return false
}

// Occluded always returns false.
func (NopOccluder) Occluded(Object, CameraView) bool {
	return false
}
