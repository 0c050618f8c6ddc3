package brayns

import (
	"reflect"
	"testing"
	"time"
)

func TestSectionTypeConstants(t *testing.T) {
	tests := []struct {
		name string
		got  SectionType
		want int
	}{
		{"soma", SectionTypeSoma, 1},
		{"axon", SectionTypeAxon, 2},
		{"dendrite", SectionTypeDendrite, 4},
		{"apical_dendrite", SectionTypeApicalDendrite, 8},
		{"all", SectionTypeAll, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.got) != tt.want {
				t.Errorf("expected %d, got %d", tt.want, tt.got)
			}
		})
	}
}

func TestColorSchemeConstants(t *testing.T) {
	schemes := []ColorScheme{
		ColorSchemeNone,
		ColorSchemeNeuronByID,
		ColorSchemeNeuronByType,
		ColorSchemeNeuronByLayer,
		ColorSchemeNeuronByMType,
		ColorSchemeNeuronByEType,
		ColorSchemeNeuronByTarget,
	}
	for i, s := range schemes {
		if int(s) != i {
			t.Errorf("color scheme %d has value %d", i, s)
		}
	}
}

func TestGeometryQualityConstants(t *testing.T) {
	if GeometryQualityLow != 0 || GeometryQualityMedium != 1 || GeometryQualityHigh != 2 {
		t.Errorf("unexpected geometry qualities: %d %d %d",
			GeometryQualityLow, GeometryQualityMedium, GeometryQualityHigh)
	}
}

func TestShadingModeConstants(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		if ShadingModeNone != "none" {
			t.Errorf("expected 'none', got '%s'", ShadingModeNone)
		}
	})

	t.Run("electron_transparency", func(t *testing.T) {
		if ShadingModeElectronTransparency != "electron-transparency" {
			t.Errorf("expected 'electron-transparency', got '%s'", ShadingModeElectronTransparency)
		}
	})
}

func TestDefaultResponseTimeout(t *testing.T) {
	if DefaultResponseTimeout != 360*time.Second {
		t.Errorf("expected 360s, got %v", DefaultResponseTimeout)
	}
}

func TestTupleHelpers(t *testing.T) {
	t.Run("rgb", func(t *testing.T) {
		if got := RGB(0.1, 0.2, 0.3); !reflect.DeepEqual(got, []float64{0.1, 0.2, 0.3}) {
			t.Errorf("unexpected RGB: %v", got)
		}
	})

	t.Run("rgba", func(t *testing.T) {
		if got := RGBA(1, 0, 0, 0.5); !reflect.DeepEqual(got, []float64{1, 0, 0, 0.5}) {
			t.Errorf("unexpected RGBA: %v", got)
		}
	})

	t.Run("aabb", func(t *testing.T) {
		if got := AABB(0, 1, 2, 3, 4, 5); len(got) != 6 || got[5] != 5 {
			t.Errorf("unexpected AABB: %v", got)
		}
	})

	t.Run("range", func(t *testing.T) {
		if got := Range(-80, -10); !reflect.DeepEqual(got, []float64{-80, -10}) {
			t.Errorf("unexpected Range: %v", got)
		}
	})
}
