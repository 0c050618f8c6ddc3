package brayns

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidParams is returned by Validate and the WithValidation stage.
var ErrInvalidParams = errors.New("invalid params")

// tupleArity lists fixed-length tuples per method.
var tupleArity = map[string]map[string]int{
	MethodSetMaterial: {
		"diffuseColor":  3,
		"specularColor": 3,
	},
	MethodSetCircuitAttributes: {
		"aabb":                 6,
		"simulationValueRange": 2,
	},
}

// Validate checks params against the wire table for method: every key the
// renderer expects must be present, no unknown key may be present, and fixed
// length tuples must have the right length. Unknown methods pass unchecked.
func Validate(method string, params Params) error {
	fields, ok := loadWireTable()[method]
	if !ok {
		return nil
	}

	var problems []string
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.key] = true
		if _, ok := params[f.key]; !ok {
			problems = append(problems, fmt.Sprintf("missing %q", f.key))
		}
	}
	for key := range params {
		if !known[key] {
			problems = append(problems, fmt.Sprintf("unexpected %q", key))
		}
	}
	for key, want := range tupleArity[method] {
		v, ok := params[key]
		if !ok {
			continue
		}
		tuple, ok := v.([]float64)
		if !ok {
			problems = append(problems, fmt.Sprintf("%q must be a list of numbers", key))
			continue
		}
		if len(tuple) != want {
			problems = append(problems, fmt.Sprintf("%q needs %d values, got %d", key, want, len(tuple)))
		}
	}
	if st, ok := params["sectionTypes"].(int); ok && (st < 0 || st > int(SectionTypeAll)) {
		problems = append(problems, fmt.Sprintf("%q mask %d out of range", "sectionTypes", st))
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s: %v", ErrInvalidParams, method, problems)
}
