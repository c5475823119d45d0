package session

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/xrmath"
)

// RenderState holds the application-controlled projection parameters.
type RenderState struct {
	DepthNear float64
	DepthFar  float64
	// FOVY is the vertical field of view in radians.
	FOVY float64
}

// DefaultRenderState returns the initial render state.
func DefaultRenderState() RenderState {
	return RenderState{
		DepthNear: 0.1,
		DepthFar:  1000,
		FOVY:      math.Pi / 2,
	}
}

// Validate checks the state before it is applied.
func (rs RenderState) Validate() error {
	if rs.DepthNear <= 0 || rs.DepthFar <= rs.DepthNear {
		return fmt.Errorf("%w: depth range %v..%v", ErrInvalidRenderState, rs.DepthNear, rs.DepthFar)
	}
	if rs.FOVY <= 0 || rs.FOVY >= math.Pi {
		return fmt.Errorf("%w: field of view %v", ErrInvalidRenderState, rs.FOVY)
	}
	return nil
}

// Eye labels which eye a view belongs to.
type Eye string

const (
	EyeNone  Eye = "none"
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// Viewport is a view's pixel rectangle in the frame buffer.
type Viewport struct {
	X, Y, Width, Height int
}

// View is one rendered eye: its pose in the queried reference space, a
// perspective projection, and its viewport.
type View struct {
	Eye        Eye
	Transform  *xrmath.RigidTransform
	Projection mgl64.Mat4
	Viewport   Viewport
}

// ViewerPose is the head pose plus the per-eye views for one frame.
type ViewerPose struct {
	Transform *xrmath.RigidTransform
	Views     []View
}

// synthesizeViews builds the view list for a viewer pose already expressed
// in the target reference space. Mono mode yields exactly one centered
// view; stereo yields two views displaced laterally by the fixed
// interpupillary half-distance and sharing the head orientation.
func (s *Session) synthesizeViews(viewer *xrmath.RigidTransform) []View {
	s.mu.Lock()
	rs := s.renderState
	stereo := s.stereo
	s.mu.Unlock()
	w, h := s.cfg.FramebufferWidth, s.cfg.FramebufferHeight

	if !stereo {
		proj := mgl64.Perspective(rs.FOVY, float64(w)/float64(h), rs.DepthNear, rs.DepthFar)
		return []View{{
			Eye:        EyeNone,
			Transform:  viewer,
			Projection: proj,
			Viewport:   Viewport{0, 0, w, h},
		}}
	}

	half := w / 2
	proj := mgl64.Perspective(rs.FOVY, float64(half)/float64(h), rs.DepthNear, rs.DepthFar)
	offset := func(dx float64) *xrmath.RigidTransform {
		return xrmath.NewRigidTransform(
			viewer.Position.Add(viewer.Orientation.Rotate(mgl64.Vec3{dx, 0, 0})),
			viewer.Orientation,
		)
	}
	return []View{
		{
			Eye:        EyeLeft,
			Transform:  offset(-s.cfg.IPDHalf),
			Projection: proj,
			Viewport:   Viewport{0, 0, half, h},
		},
		{
			Eye:        EyeRight,
			Transform:  offset(s.cfg.IPDHalf),
			Projection: proj,
			Viewport:   Viewport{half, 0, half, h},
		},
	}
}
