package brayns

import "time"

// DefaultResponseTimeout is how long circuit explorer calls wait for the renderer.
const DefaultResponseTimeout = 360 * time.Second

// ColorScheme selects how the renderer colours neurons of a circuit.
type ColorScheme int

// Circuit colour schemes.
const (
	ColorSchemeNone ColorScheme = iota
	ColorSchemeNeuronByID
	ColorSchemeNeuronByType
	ColorSchemeNeuronByLayer
	ColorSchemeNeuronByMType
	ColorSchemeNeuronByEType
	ColorSchemeNeuronByTarget
)

// SectionType is a morphology section flag. Flags are disjoint bits, except
// SectionTypeAll which covers every bit.
type SectionType int

// Morphology section types.
const (
	SectionTypeSoma           SectionType = 1
	SectionTypeAxon           SectionType = 2
	SectionTypeDendrite       SectionType = 4
	SectionTypeApicalDendrite SectionType = 8
	SectionTypeAll            SectionType = 255
)

// GeometryQuality controls how finely the renderer tessellates morphologies.
type GeometryQuality int

// Geometry qualities.
const (
	GeometryQualityLow GeometryQuality = iota
	GeometryQualityMedium
	GeometryQualityHigh
)

// ShadingMode names a material shading mode understood by the renderer.
type ShadingMode string

// Shading modes.
const (
	ShadingModeNone                 ShadingMode = "none"
	ShadingModeDiffuse              ShadingMode = "diffuse"
	ShadingModeElectron             ShadingMode = "electron"
	ShadingModeCartoon              ShadingMode = "cartoon"
	ShadingModeElectronTransparency ShadingMode = "electron-transparency"
)

// ScaleMode decides how LoadPositionsFromFile applies its scale factors.
type ScaleMode int

const (
	// ScaleRepeat repeats each axis sequence by its integral scale factor.
	// Coordinates are not multiplied.
	ScaleRepeat ScaleMode = iota

	// ScaleMultiply multiplies every coordinate by its axis factor.
	ScaleMultiply
)

// Graph explorer defaults.
const (
	DefaultMaxConnectionLength = 1e6
	DefaultMaxDimension        = 1000000
)
