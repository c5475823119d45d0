package track

// Config holds the tunable fusion parameters. The scale and offset values
// are empirically tuned against the detector's coordinate conventions;
// changing them changes where applications see the head and hands.
type Config struct {
	// Smoothing is the weight kept on the previous head pose each update
	// (0-1, higher = steadier, laggier).
	Smoothing float64

	// PositionScale converts the facial matrix's centimeter-scale
	// translation to meters.
	PositionScale float64

	// DepthBias recenters the detector's neutral sitting distance, meters.
	DepthBias float64

	// EyeHeight is the standing eye height baked into hand anchors, meters.
	EyeHeight float64

	// FallbackPositionScale and FallbackDepthScale drive the low-fidelity
	// nose-tip head path when no facial matrix is available.
	FallbackPositionScale float64
	FallbackDepthScale    float64

	// HandAnchorScaleX/Y and HandAnchorDrop/Forward place the wrist anchor
	// from its mirrored 2D screen position, relative to the current head.
	HandAnchorScaleX  float64
	HandAnchorScaleY  float64
	HandAnchorDrop    float64
	HandAnchorForward float64

	// HandFallbackScaleXZ and HandFallbackScaleY scale normalized
	// landmark offsets when metric world landmarks are missing.
	HandFallbackScaleXZ float64
	HandFallbackScaleY  float64
}

// DefaultConfig returns the tuned production values.
func DefaultConfig() Config {
	return Config{
		Smoothing:     0.8,
		PositionScale: 0.01,
		DepthBias:     -0.3,
		EyeHeight:     1.6,

		FallbackPositionScale: 0.3,
		FallbackDepthScale:    0.5,

		HandAnchorScaleX:  0.6,
		HandAnchorScaleY:  0.4,
		HandAnchorDrop:    0.2,
		HandAnchorForward: -0.4,

		HandFallbackScaleXZ: 0.3,
		HandFallbackScaleY:  0.2,
	}
}
