package protocol

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/xrmath"
)

// PoseFromTransform converts a rigid transform to its wire form.
func PoseFromTransform(t *xrmath.RigidTransform) Pose {
	return Pose{
		Position: [3]float64{t.Position.X(), t.Position.Y(), t.Position.Z()},
		Orientation: [4]float64{
			t.Orientation.V.X(),
			t.Orientation.V.Y(),
			t.Orientation.V.Z(),
			t.Orientation.W,
		},
	}
}

// MatrixToSlice flattens a column-major matrix for the wire.
func MatrixToSlice(m mgl64.Mat4) [16]float64 {
	var out [16]float64
	copy(out[:], m[:])
	return out
}

// NewWarningMessage creates a degraded-mode warning message.
func NewWarningMessage(text string) (*Message, error) {
	return NewMessage(TypeWarning, WarningData{Message: text})
}

// NewErrorMessage creates an error message.
func NewErrorMessage(text string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: text})
}

// NewSelectMessage creates a select-start or select-end message.
func NewSelectMessage(msgType MessageType, sourceID, handedness string) (*Message, error) {
	return NewMessage(msgType, SelectData{SourceID: sourceID, Handedness: handedness})
}
