package hand

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/camxr/camxr/pkg/xrmath"
)

var worldUp = mgl64.Vec3{0, 1, 0}

// isThumb reports whether a joint index belongs to the thumb chain.
func isThumb(i int) bool {
	return i >= ThumbMetacarpal && i <= ThumbTip
}

// jointOrientation derives one joint's orientation from its forward
// direction along the finger chain and an up reference.
//
// Forward points at the chain successor. The up reference is the palm
// normal for all non-thumb joints; the thumb's roll axis sits roughly 90
// degrees off the other fingers, so its up is instead the vector
// orthogonal to both the palm normal and the thumb's own forward,
// sign-flipped by handedness. Terminal joints (tips) get identity.
//
// The branch order here visibly affects how rendered hand models bend;
// keep it stable.
func jointOrientation(side Side, i int, pos [JointCount]mgl64.Vec3, palm mgl64.Vec3) mgl64.Quat {
	next := successor[i]
	if next < 0 {
		return mgl64.QuatIdent()
	}

	forward := pos[next].Sub(pos[i])
	if forward.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	forward = forward.Normalize()

	var up mgl64.Vec3
	if isThumb(i) {
		up = xrmath.SafeNormalize(palm.Cross(forward), worldUp)
		if side == Left {
			up = up.Mul(-1)
		}
	} else {
		up = palm
	}

	right := forward.Cross(up)
	if right.Len() < 1e-9 {
		// Forward is parallel to the up reference; fall back to world up.
		up = worldUp
		right = forward.Cross(up)
		if right.Len() < 1e-9 {
			return mgl64.QuatIdent()
		}
	}
	right = right.Normalize()
	up = right.Cross(forward)

	return xrmath.QuatFromBasis(right, up, forward.Mul(-1))
}
