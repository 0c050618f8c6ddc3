package brayns

import (
	"context"
	"fmt"
	"slices"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// MaterialInput describes the appearance of one material of a model.
type MaterialInput struct {
	ModelID          int
	MaterialID       int
	Diffuse          []float64 // RGB, scaled by Intensity before sending
	Specular         []float64 // RGB
	SpecularExponent float64
	Opacity          float64
	ReflectionIndex  float64
	RefractionIndex  float64
	CastSimulation   bool // Let simulation data drive the colour
	Glossiness       float64
	Intensity        float64
	ShadingMode      ShadingMode
	Emission         float64
}

// DefaultMaterialInput returns the renderer's default material for the given
// model and material.
func DefaultMaterialInput(modelID, materialID int) MaterialInput {
	return MaterialInput{
		ModelID:          modelID,
		MaterialID:       materialID,
		Diffuse:          RGB(1, 1, 1),
		Specular:         RGB(1, 1, 1),
		SpecularExponent: 20,
		Opacity:          1,
		ReflectionIndex:  0,
		RefractionIndex:  1,
		CastSimulation:   true,
		Glossiness:       1,
		Intensity:        1,
		ShadingMode:      ShadingModeNone,
		Emission:         0,
	}
}

// CircuitAttributesInput holds circuit level rendering attributes.
type CircuitAttributesInput struct {
	AABB               []float64 // min xyz, max xyz; all zeros means no clipping
	Density            float64   // Percentage of cells to load
	Targets            string
	Report             string
	ColorScheme        ColorScheme
	MeshFilePattern    string
	MeshFolder         string
	MeshTransformation bool
	UseSimulationModel bool
}

// DefaultCircuitAttributesInput returns the renderer's default circuit attributes.
func DefaultCircuitAttributesInput() CircuitAttributesInput {
	return CircuitAttributesInput{
		AABB:        AABB(0, 0, 0, 0, 0, 0),
		Density:     100,
		ColorScheme: ColorSchemeNone,
	}
}

// MorphologyAttributesInput holds morphology level rendering attributes.
type MorphologyAttributesInput struct {
	SectionTypes                    []SectionType
	RadiusMultiplier                float64
	RadiusCorrection                float64
	DampenBranchThicknessChangerate bool
	UseSDFGeometries                bool
	GeometryQuality                 GeometryQuality
}

// DefaultMorphologyAttributesInput returns the renderer's default morphology attributes.
func DefaultMorphologyAttributesInput() MorphologyAttributesInput {
	return MorphologyAttributesInput{
		SectionTypes:                    []SectionType{SectionTypeAll},
		RadiusMultiplier:                1,
		RadiusCorrection:                0,
		DampenBranchThicknessChangerate: true,
		UseSDFGeometries:                true,
		GeometryQuality:                 GeometryQualityHigh,
	}
}

// TransferFunctionInput describes a colour transfer function.
type TransferFunctionInput struct {
	Palette      [][]float64 // RGB or RGBA colours
	DataRange    []float64
	Contribution float64   // Applied to every palette entry
	Intensity    float64   // Scales the RGB part of every palette entry
	Emission     []float64 // RGB, applied to every palette entry
}

// DefaultTransferFunctionInput returns a transfer function over palette with
// the renderer's default range, contribution, intensity and emission.
func DefaultTransferFunctionInput(palette [][]float64) TransferFunctionInput {
	return TransferFunctionInput{
		Palette:      palette,
		DataRange:    Range(0, 255),
		Contribution: 1,
		Intensity:    1,
		Emission:     RGB(0, 0, 0),
	}
}

// SectionMask folds section type flags into the renderer's bit mask by
// summing them. Overlapping flags are summed too, so SectionTypeAll plus any
// other flag overflows the mask.
func SectionMask(types []SectionType) int {
	mask := 0
	for _, t := range types {
		mask += int(t)
	}
	return mask
}

// CircuitExplorer shapes circuit and morphology visualisation requests.
type CircuitExplorer struct {
	client  RenderClient
	service *Service
}

// NewCircuitExplorer creates a circuit explorer bound to client.
// The explorer is immediately usable and can be enhanced with options.
//
// Example:
//
//	circuits := NewCircuitExplorer(client,
//	    WithRetry(3),
//	    WithTimeout(10*time.Minute),
//	)
//	_, err := circuits.SaveToCache(ctx, 0, "/tmp/circuit.brayns")
func NewCircuitExplorer(client RenderClient, opts ...Option) *CircuitExplorer {
	return &CircuitExplorer{
		client:  client,
		service: NewService(newPipeline(client, opts), "circuit"),
	}
}

// String implements fmt.Stringer.
func (*CircuitExplorer) String() string {
	return "Circuit Explorer"
}

// GetPipeline returns the internal pipeline for composition.
// Implements ServiceProvider interface.
func (c *CircuitExplorer) GetPipeline() pipz.Chainable[*Call] {
	return c.service.GetPipeline()
}

// SetMaterial updates one material of a model.
func (c *CircuitExplorer) SetMaterial(ctx context.Context, in MaterialInput) (any, error) {
	params := encode(MethodSetMaterial, materialParams{
		ModelID:            in.ModelID,
		MaterialID:         in.MaterialID,
		DiffuseColor:       scaleRGB(in.Diffuse, in.Intensity),
		SpecularColor:      slices.Clone(in.Specular),
		SpecularExponent:   in.SpecularExponent,
		ReflectionIndex:    in.ReflectionIndex,
		Opacity:            in.Opacity,
		RefractionIndex:    in.RefractionIndex,
		Emission:           in.Emission,
		Glossiness:         in.Glossiness,
		CastSimulationData: in.CastSimulation,
		ShadingMode:        string(in.ShadingMode),
	})
	return c.service.Execute(ctx, MethodSetMaterial, params, DefaultResponseTimeout)
}

// SetCircuitAttributes updates circuit level rendering attributes.
func (c *CircuitExplorer) SetCircuitAttributes(ctx context.Context, in CircuitAttributesInput) (any, error) {
	params := encode(MethodSetCircuitAttributes, circuitAttributesParams{
		AABB:                    slices.Clone(in.AABB),
		Density:                 in.Density,
		MeshFilenamePattern:     in.MeshFilePattern,
		MeshFolder:              in.MeshFolder,
		MeshTransformation:      in.MeshTransformation,
		Targets:                 in.Targets,
		Report:                  in.Report,
		RandomSeed:              legacyRandomSeed,
		ColorScheme:             int(in.ColorScheme),
		UseSimulationModel:      in.UseSimulationModel,
		StartSimulationTime:     legacyStartSimulationTime,
		EndSimulationTime:       legacyEndSimulationTime,
		SimulationStep:          legacySimulationStep,
		SimulationValueRange:    slices.Clone(legacySimulationValueRange),
		SimulationHistogramSize: legacySimulationHistogramSize,
	})
	return c.service.Execute(ctx, MethodSetCircuitAttributes, params, DefaultResponseTimeout)
}

// SetMorphologyAttributes updates morphology level rendering attributes.
func (c *CircuitExplorer) SetMorphologyAttributes(ctx context.Context, in MorphologyAttributesInput) (any, error) {
	params := encode(MethodSetMorphologyAttributes, morphologyAttributesParams{
		RadiusMultiplier:                in.RadiusMultiplier,
		RadiusCorrection:                in.RadiusCorrection,
		DampenBranchThicknessChangerate: in.DampenBranchThicknessChangerate,
		UseSDFGeometries:                in.UseSDFGeometries,
		GeometryQuality:                 int(in.GeometryQuality),
		SectionTypes:                    SectionMask(in.SectionTypes),
		ColorScheme:                     legacyMorphologyColorScheme,
		RealisticSoma:                   legacyRealisticSoma,
		MetaballsSamplesFromSoma:        legacyMetaballsSamplesFromSoma,
		MetaballsGridSize:               legacyMetaballsGridSize,
		MetaballsThreshold:              legacyMetaballsThreshold,
		UseSimulationModel:              legacyUseSimulationModel,
	})
	return c.service.Execute(ctx, MethodSetMorphologyAttributes, params, DefaultResponseTimeout)
}

// SetTransferFunction overwrites the renderer's transfer function and commits
// it. Every palette colour becomes an RGBA entry with its RGB part scaled by
// Intensity; colours without alpha get an alpha of 1.
func (c *CircuitExplorer) SetTransferFunction(ctx context.Context, in TransferFunctionInput) error {
	diffuse := make([][]float64, 0, len(in.Palette))
	contribution := make([]float64, 0, len(in.Palette))
	emission := make([][]float64, 0, len(in.Palette))

	for i, color := range in.Palette {
		if len(color) < 3 {
			return fmt.Errorf("palette colour %d: need at least 3 components, got %d", i, len(color))
		}
		alpha := 1.0
		if len(color) == 4 {
			alpha = color[3]
		}
		diffuse = append(diffuse, []float64{
			color[0] * in.Intensity,
			color[1] * in.Intensity,
			color[2] * in.Intensity,
			alpha,
		})
		contribution = append(contribution, in.Contribution)
		emission = append(emission, slices.Clone(in.Emission))
	}

	tf := c.client.TransferFunction()
	tf.SetDiffuse(diffuse)
	tf.SetContribution(contribution)
	tf.SetEmission(emission)
	tf.SetRange(slices.Clone(in.DataRange))

	if err := tf.Commit(ctx); err != nil {
		capitan.Error(ctx, TransferFunctionFailed,
			ExplorerKey.Field("circuit"),
			PaletteSizeKey.Field(len(in.Palette)),
			ErrorKey.Field(err.Error()),
		)
		return err
	}

	capitan.Info(ctx, TransferFunctionCommit,
		ExplorerKey.Field("circuit"),
		PaletteSizeKey.Field(len(in.Palette)),
	)
	return nil
}

// LoadFromCache loads a model from a cache file under the given name.
func (c *CircuitExplorer) LoadFromCache(ctx context.Context, name, path string) (any, error) {
	params := encode(MethodLoadModelFromCache, loadModelFromCacheParams{
		Name: name,
		Path: path,
	})
	return c.service.Execute(ctx, MethodLoadModelFromCache, params, DefaultResponseTimeout)
}

// SaveToCache saves a model to a cache file.
func (c *CircuitExplorer) SaveToCache(ctx context.Context, modelID int, path string) (any, error) {
	params := encode(MethodSaveModelToCache, saveModelToCacheParams{
		ModelID: modelID,
		Path:    path,
	})
	return c.service.Execute(ctx, MethodSaveModelToCache, params, DefaultResponseTimeout)
}

// scaleRGB multiplies the first three components of color by intensity.
// Extra components are dropped; short colours are scaled as far as they go.
func scaleRGB(color []float64, intensity float64) []float64 {
	n := min(len(color), 3)
	scaled := make([]float64, n)
	for i := range n {
		scaled[i] = color[i] * intensity
	}
	return scaled
}
