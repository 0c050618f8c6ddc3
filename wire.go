package brayns

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

// Remote method names.
const (
	MethodSetMaterial             = "setMaterial"
	MethodSetCircuitAttributes    = "setCircuitAttributes"
	MethodSetMorphologyAttributes = "setMorphologyAttributes"
	MethodLoadModelFromCache      = "loadModelFromCache"
	MethodSaveModelToCache        = "saveModelToCache"
	MethodPositions               = "positions"
	MethodRandomConnectivity      = "random-connectivity"
	MethodConnectivity            = "connectivity"
)

// Fields the renderer no longer reads but still expects on the wire.
const (
	legacyRandomSeed              = 0
	legacyStartSimulationTime     = 0.0
	legacyEndSimulationTime       = 0.0
	legacySimulationStep          = 0.0
	legacySimulationHistogramSize = 256

	legacyMorphologyColorScheme    = 0
	legacyRealisticSoma            = false
	legacyMetaballsSamplesFromSoma = 0
	legacyMetaballsGridSize        = 0
	legacyMetaballsThreshold       = 0.0
	legacyUseSimulationModel       = false
)

var legacySimulationValueRange = []float64{-80, -10}

type materialParams struct {
	ModelID            int       `json:"modelId"`
	MaterialID         int       `json:"materialId"`
	DiffuseColor       []float64 `json:"diffuseColor"`
	SpecularColor      []float64 `json:"specularColor"`
	SpecularExponent   float64   `json:"specularExponent"`
	ReflectionIndex    float64   `json:"reflectionIndex"`
	Opacity            float64   `json:"opacity"`
	RefractionIndex    float64   `json:"refractionIndex"`
	Emission           float64   `json:"emission"`
	Glossiness         float64   `json:"glossiness"`
	CastSimulationData bool      `json:"castSimulationData"`
	ShadingMode        string    `json:"shadingMode"`
}

type circuitAttributesParams struct {
	AABB                    []float64 `json:"aabb"`
	Density                 float64   `json:"density"`
	MeshFilenamePattern     string    `json:"meshFilenamePattern"`
	MeshFolder              string    `json:"meshFolder"`
	MeshTransformation      bool      `json:"meshTransformation"`
	Targets                 string    `json:"targets"`
	Report                  string    `json:"report"`
	RandomSeed              int       `json:"randomSeed"`
	ColorScheme             int       `json:"colorScheme"`
	UseSimulationModel      bool      `json:"useSimulationModel"`
	StartSimulationTime     float64   `json:"startSimulationTime"`
	EndSimulationTime       float64   `json:"endSimulationTime"`
	SimulationStep          float64   `json:"simulationStep"`
	SimulationValueRange    []float64 `json:"simulationValueRange"`
	SimulationHistogramSize int       `json:"simulationHistogramSize"`
}

type morphologyAttributesParams struct {
	RadiusMultiplier                float64 `json:"radiusMultiplier"`
	RadiusCorrection                float64 `json:"radiusCorrection"`
	DampenBranchThicknessChangerate bool    `json:"dampenBranchThicknessChangerate"`
	UseSDFGeometries                bool    `json:"useSDFGeometries"`
	GeometryQuality                 int     `json:"geometryQuality"`
	SectionTypes                    int     `json:"sectionTypes"`
	ColorScheme                     int     `json:"colorScheme"`
	RealisticSoma                   bool    `json:"realisticSoma"`
	MetaballsSamplesFromSoma        int     `json:"metaballsSamplesFromSoma"`
	MetaballsGridSize               int     `json:"metaballsGridSize"`
	MetaballsThreshold              float64 `json:"metaballsThreshold"`
	UseSimulationModel              bool    `json:"useSimulationModel"`
}

type loadModelFromCacheParams struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type saveModelToCacheParams struct {
	ModelID int    `json:"modelId"`
	Path    string `json:"path"`
}

type positionsParams struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Z      []float64 `json:"z"`
	Radius float64   `json:"radius"`
}

type randomConnectivityParams struct {
	MinLength float64 `json:"minLength"`
	MaxLength float64 `json:"maxLength"`
	Density   int     `json:"density"`
}

type connectivityParams struct {
	Filename     string `json:"filename"`
	MatrixID     int    `json:"matrixId"`
	MinDimension int    `json:"minDimension"`
	MaxDimension int    `json:"maxDimension"`
}

// wireField describes one key of a method's parameter mapping.
type wireField struct {
	name string // Go struct field
	key  string // wire key
}

var (
	wireOnce  sync.Once
	wireTable map[string][]wireField
)

func loadWireTable() map[string][]wireField {
	wireOnce.Do(func() {
		wireTable = map[string][]wireField{
			MethodSetMaterial:             inspectWire[materialParams](),
			MethodSetCircuitAttributes:    inspectWire[circuitAttributesParams](),
			MethodSetMorphologyAttributes: inspectWire[morphologyAttributesParams](),
			MethodLoadModelFromCache:      inspectWire[loadModelFromCacheParams](),
			MethodSaveModelToCache:        inspectWire[saveModelToCacheParams](),
			MethodPositions:               inspectWire[positionsParams](),
			MethodRandomConnectivity:      inspectWire[randomConnectivityParams](),
			MethodConnectivity:            inspectWire[connectivityParams](),
		}
	})
	return wireTable
}

// inspectWire extracts the wire fields of a parameter struct using sentinel.
func inspectWire[T any]() []wireField {
	metadata := sentinel.Inspect[T]()

	fields := make([]wireField, 0, len(metadata.Fields))
	for _, field := range metadata.Fields {
		key := wireKey(field)
		if key == "-" {
			continue
		}
		fields = append(fields, wireField{name: field.Name, key: key})
	}
	return fields
}

// wireKey extracts the wire key from the json tag.
func wireKey(field sentinel.FieldMetadata) string {
	if jsonTag, ok := field.Tags["json"]; ok {
		parts := strings.Split(jsonTag, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0]
		}
	}
	return strings.ToLower(field.Name[:1]) + field.Name[1:]
}

// encode flattens a parameter struct into its wire mapping.
func encode[T any](method string, v T) Params {
	fields := loadWireTable()[method]
	rv := reflect.ValueOf(v)

	params := make(Params, len(fields))
	for _, f := range fields {
		params[f.key] = rv.FieldByName(f.name).Interface()
	}
	return params
}

// WireKeys returns the sorted parameter keys the renderer expects for method.
// It returns nil for methods this package does not send.
func WireKeys(method string) []string {
	fields, ok := loadWireTable()[method]
	if !ok {
		return nil
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	sort.Strings(keys)
	return keys
}

// Methods returns every remote method this package can send, sorted.
func Methods() []string {
	table := loadWireTable()
	methods := make([]string, 0, len(table))
	for m := range table {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}
