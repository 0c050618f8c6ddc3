package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zoobzio/brayns"
)

var (
	sectionNames = map[string]brayns.SectionType{
		"soma":            brayns.SectionTypeSoma,
		"axon":            brayns.SectionTypeAxon,
		"dendrite":        brayns.SectionTypeDendrite,
		"apical-dendrite": brayns.SectionTypeApicalDendrite,
		"all":             brayns.SectionTypeAll,
	}
	qualityNames = map[string]brayns.GeometryQuality{
		"low":    brayns.GeometryQualityLow,
		"medium": brayns.GeometryQualityMedium,
		"high":   brayns.GeometryQualityHigh,
	}
	schemeNames = map[string]brayns.ColorScheme{
		"none":      brayns.ColorSchemeNone,
		"by-id":     brayns.ColorSchemeNeuronByID,
		"by-type":   brayns.ColorSchemeNeuronByType,
		"by-layer":  brayns.ColorSchemeNeuronByLayer,
		"by-mtype":  brayns.ColorSchemeNeuronByMType,
		"by-etype":  brayns.ColorSchemeNeuronByEType,
		"by-target": brayns.ColorSchemeNeuronByTarget,
	}
)

// floatList is a comma separated list of floats, e.g. "1,0.5,0".
type floatList []float64

func (l *floatList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(s string) error {
	values, err := parseFloats(s)
	if err != nil {
		return err
	}
	*l = values
	return nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// parsePalette reads colours separated by ';', each a comma separated list.
func parsePalette(s string) ([][]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty palette")
	}
	var palette [][]float64
	for _, colour := range strings.Split(s, ";") {
		values, err := parseFloats(colour)
		if err != nil {
			return nil, fmt.Errorf("colour %q: %w", colour, err)
		}
		palette = append(palette, values)
	}
	return palette, nil
}

func parseSections(s string) ([]brayns.SectionType, error) {
	var types []brayns.SectionType
	for _, name := range strings.Split(s, ",") {
		t, ok := sectionNames[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown section type %q", name)
		}
		types = append(types, t)
	}
	return types, nil
}

func lookup[T any](kind string, names map[string]T, name string) (T, error) {
	v, ok := names[strings.ToLower(name)]
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s %q", kind, name)
	}
	return v, nil
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func runMaterial(ctx context.Context, env *environment, args []string) (any, error) {
	in := brayns.DefaultMaterialInput(0, 0)
	diffuse := floatList(in.Diffuse)
	specular := floatList(in.Specular)
	shading := string(in.ShadingMode)

	fs := newFlags("material")
	fs.IntVar(&in.ModelID, "model", in.ModelID, "model ID")
	fs.IntVar(&in.MaterialID, "material", in.MaterialID, "material ID")
	fs.Var(&diffuse, "diffuse", "diffuse colour r,g,b")
	fs.Var(&specular, "specular", "specular colour r,g,b")
	fs.Float64Var(&in.SpecularExponent, "specular-exponent", in.SpecularExponent, "specular exponent")
	fs.Float64Var(&in.Opacity, "opacity", in.Opacity, "opacity")
	fs.Float64Var(&in.ReflectionIndex, "reflection", in.ReflectionIndex, "reflection index")
	fs.Float64Var(&in.RefractionIndex, "refraction", in.RefractionIndex, "refraction index")
	fs.BoolVar(&in.CastSimulation, "simulation", in.CastSimulation, "colour from simulation data")
	fs.Float64Var(&in.Glossiness, "glossiness", in.Glossiness, "glossiness")
	fs.Float64Var(&in.Intensity, "intensity", in.Intensity, "diffuse intensity")
	fs.StringVar(&shading, "shading", shading, "shading mode: none, diffuse, electron, cartoon, electron-transparency")
	fs.Float64Var(&in.Emission, "emission", in.Emission, "light emission")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	in.Diffuse = diffuse
	in.Specular = specular
	in.ShadingMode = brayns.ShadingMode(shading)
	return env.circuits.SetMaterial(ctx, in)
}

func runCircuit(ctx context.Context, env *environment, args []string) (any, error) {
	in := brayns.DefaultCircuitAttributesInput()
	aabb := floatList(in.AABB)
	scheme := "none"

	fs := newFlags("circuit")
	fs.Var(&aabb, "aabb", "bounding box xmin,ymin,zmin,xmax,ymax,zmax")
	fs.Float64Var(&in.Density, "density", in.Density, "percentage of cells to load")
	fs.StringVar(&in.Targets, "targets", in.Targets, "circuit targets")
	fs.StringVar(&in.Report, "report", in.Report, "simulation report")
	fs.StringVar(&scheme, "color-scheme", scheme, "none, by-id, by-type, by-layer, by-mtype, by-etype, by-target")
	fs.StringVar(&in.MeshFilePattern, "mesh-pattern", in.MeshFilePattern, "mesh filename pattern")
	fs.StringVar(&in.MeshFolder, "mesh-folder", in.MeshFolder, "mesh folder")
	fs.BoolVar(&in.MeshTransformation, "mesh-transformation", in.MeshTransformation, "apply circuit transformation to meshes")
	fs.BoolVar(&in.UseSimulationModel, "simulation-model", in.UseSimulationModel, "use the simulation model")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cs, err := lookup("colour scheme", schemeNames, scheme)
	if err != nil {
		return nil, err
	}
	in.AABB = aabb
	in.ColorScheme = cs
	return env.circuits.SetCircuitAttributes(ctx, in)
}

func runMorphology(ctx context.Context, env *environment, args []string) (any, error) {
	in := brayns.DefaultMorphologyAttributesInput()
	sections := "all"
	quality := "high"

	fs := newFlags("morphology")
	fs.StringVar(&sections, "sections", sections, "section types: soma, axon, dendrite, apical-dendrite, all")
	fs.Float64Var(&in.RadiusMultiplier, "radius-multiplier", in.RadiusMultiplier, "radius multiplier")
	fs.Float64Var(&in.RadiusCorrection, "radius-correction", in.RadiusCorrection, "radius correction")
	fs.BoolVar(&in.DampenBranchThicknessChangerate, "dampen-branches", in.DampenBranchThicknessChangerate, "dampen branch thickness change rate")
	fs.BoolVar(&in.UseSDFGeometries, "sdf", in.UseSDFGeometries, "use signed distance field geometries")
	fs.StringVar(&quality, "quality", quality, "geometry quality: low, medium, high")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	types, err := parseSections(sections)
	if err != nil {
		return nil, err
	}
	q, err := lookup("geometry quality", qualityNames, quality)
	if err != nil {
		return nil, err
	}
	in.SectionTypes = types
	in.GeometryQuality = q
	return env.circuits.SetMorphologyAttributes(ctx, in)
}

func runTransferFunction(ctx context.Context, env *environment, args []string) (any, error) {
	in := brayns.DefaultTransferFunctionInput(nil)
	dataRange := floatList(in.DataRange)
	emission := floatList(in.Emission)
	palette := ""

	fs := newFlags("transfer-function")
	fs.StringVar(&palette, "palette", palette, "colours r,g,b[,a] separated by ';'")
	fs.Var(&dataRange, "range", "data range min,max")
	fs.Float64Var(&in.Contribution, "contribution", in.Contribution, "contribution of every colour")
	fs.Float64Var(&in.Intensity, "intensity", in.Intensity, "colour intensity")
	fs.Var(&emission, "emission", "emission r,g,b")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	colours, err := parsePalette(palette)
	if err != nil {
		return nil, err
	}
	in.Palette = colours
	in.DataRange = dataRange
	in.Emission = emission
	return nil, env.circuits.SetTransferFunction(ctx, in)
}

func runLoadCache(ctx context.Context, env *environment, args []string) (any, error) {
	fs := newFlags("load-cache")
	name := fs.String("name", "", "model name")
	path := fs.String("path", "", "cache file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, errors.New("-path is required")
	}
	return env.circuits.LoadFromCache(ctx, *name, *path)
}

func runSaveCache(ctx context.Context, env *environment, args []string) (any, error) {
	fs := newFlags("save-cache")
	model := fs.Int("model", 0, "model ID")
	path := fs.String("path", "", "cache file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, errors.New("-path is required")
	}
	return env.circuits.SaveToCache(ctx, *model, *path)
}

func runPositions(ctx context.Context, env *environment, args []string) (any, error) {
	in, err := parsePositionsFlags(args)
	if err != nil {
		return nil, err
	}
	return nil, env.graphs.LoadPositionsFromFile(ctx, in)
}

func parsePositionsFlags(args []string) (brayns.PositionsInput, error) {
	in := brayns.DefaultPositionsInput("")
	scale := floatList(in.Scale)

	fs := newFlags("positions")
	fs.StringVar(&in.Path, "file", "", "positions file, one x y z per line")
	fs.Float64Var(&in.Radius, "radius", in.Radius, "node radius")
	fs.Var(&scale, "scale", "scale factors x,y,z")
	multiply := fs.Bool("multiply", false, "multiply coordinates instead of repeating axis sequences")
	if err := fs.Parse(args); err != nil {
		return in, err
	}
	if in.Path == "" {
		return in, errors.New("-file is required")
	}

	in.Scale = scale
	if *multiply {
		in.ScaleMode = brayns.ScaleMultiply
	}
	return in, nil
}

func runRandomConnectivity(ctx context.Context, env *environment, args []string) (any, error) {
	in := brayns.DefaultRandomConnectivityInput()

	fs := newFlags("random-connectivity")
	fs.Float64Var(&in.MinDistance, "min", in.MinDistance, "minimum connection length")
	fs.Float64Var(&in.MaxDistance, "max", in.MaxDistance, "maximum connection length")
	fs.IntVar(&in.Density, "density", in.Density, "nodes skipped between connections")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return env.graphs.CreateRandomConnectivity(ctx, in)
}

func runConnectivity(ctx context.Context, env *environment, args []string) (any, error) {
	in := brayns.DefaultConnectivityInput("", 0)

	fs := newFlags("connectivity")
	fs.StringVar(&in.Path, "file", "", "connectivity matrix file")
	fs.IntVar(&in.MatrixID, "matrix", in.MatrixID, "matrix ID")
	fs.IntVar(&in.DimensionRange[0], "min-dimension", in.DimensionRange[0], "minimum dimension")
	fs.IntVar(&in.DimensionRange[1], "max-dimension", in.DimensionRange[1], "maximum dimension")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if in.Path == "" {
		return nil, errors.New("-file is required")
	}
	return env.graphs.LoadConnectivityFromFile(ctx, in)
}

// validatePositions parses a positions file and reports its node count.
func validatePositions(args []string, out io.Writer) error {
	in, err := parsePositionsFlags(args)
	if err != nil {
		return err
	}

	positions, err := brayns.ReadPositionsFile(in.Path)
	if err != nil {
		return err
	}
	scaled, err := positions.Scaled(in.Scale, in.ScaleMode)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: %d nodes (%d x values after scaling)\n", in.Path, positions.Len(), len(scaled.X))
	return err
}
