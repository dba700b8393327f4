package metricdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHigherBetter(id string, category Category, weight float64) Definition {
	return Definition{
		ID:         id,
		Name:       id,
		Category:   category,
		Kind:       KindContinuous,
		Direction:  DirectionHigherBetter,
		Minimum:    10,
		Target:     20,
		Weight:     weight,
		MinSamples: 1,
	}
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr string
	}{
		{
			name:   "valid higher better",
			mutate: func(d *Definition) {},
		},
		{
			name:    "empty id",
			mutate:  func(d *Definition) { d.ID = "" },
			wantErr: "empty id",
		},
		{
			name:    "unknown category",
			mutate:  func(d *Definition) { d.Category = "vibes" },
			wantErr: "unknown category",
		},
		{
			name:    "unknown kind",
			mutate:  func(d *Definition) { d.Kind = "exotic" },
			wantErr: "unknown kind",
		},
		{
			name:    "zero weight",
			mutate:  func(d *Definition) { d.Weight = 0 },
			wantErr: "weight must be positive",
		},
		{
			name:    "zero min samples",
			mutate:  func(d *Definition) { d.MinSamples = 0 },
			wantErr: "min_samples must be at least 1",
		},
		{
			name:    "minimum above target",
			mutate:  func(d *Definition) { d.Minimum = 25 },
			wantErr: "exceeds target",
		},
		{
			name:    "minimum equal to target",
			mutate:  func(d *Definition) { d.Minimum = d.Target },
			wantErr: "must differ",
		},
		{
			name: "lower better without ceiling",
			mutate: func(d *Definition) {
				d.Direction = DirectionLowerBetter
				d.Target = 5
				d.Maximum = 5
			},
			wantErr: "must exceed target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validHigherBetter("session_length", CategoryQuantitative, 0.1)
			tt.mutate(&def)

			err := def.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateSetWeightBudgets(t *testing.T) {
	tests := []struct {
		name    string
		defs    []Definition
		wantErr string
	}{
		{
			name: "budgets satisfied",
			defs: []Definition{
				validHigherBetter("a", CategoryQuantitative, 0.40),
				validHigherBetter("b", CategoryQuantitative, 0.30),
				validHigherBetter("c", CategoryQualitative, 0.30),
			},
		},
		{
			name: "quantitative over budget",
			defs: []Definition{
				validHigherBetter("a", CategoryQuantitative, 0.50),
				validHigherBetter("b", CategoryQuantitative, 0.30),
				validHigherBetter("c", CategoryQualitative, 0.30),
			},
			wantErr: "quantitative weights sum",
		},
		{
			name: "qualitative under budget",
			defs: []Definition{
				validHigherBetter("a", CategoryQuantitative, 0.70),
				validHigherBetter("c", CategoryQualitative, 0.20),
			},
			wantErr: "qualitative weights sum",
		},
		{
			name: "duplicate ids",
			defs: []Definition{
				validHigherBetter("a", CategoryQuantitative, 0.35),
				validHigherBetter("a", CategoryQuantitative, 0.35),
				validHigherBetter("c", CategoryQualitative, 0.30),
			},
			wantErr: "duplicate metric definition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSet(tt.defs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDefaultDefinitionsSatisfyBudgets(t *testing.T) {
	defs := DefaultDefinitions()
	require.NotEmpty(t, defs)
	assert.NoError(t, ValidateSet(defs))

	var quant, qual float64
	for _, d := range defs {
		switch d.Category {
		case CategoryQuantitative:
			quant += d.Weight
		case CategoryQualitative:
			qual += d.Weight
		}
	}
	assert.InDelta(t, QuantitativeWeightBudget, quant, 1e-9)
	assert.InDelta(t, QualitativeWeightBudget, qual, 1e-9)
}

func TestRegistryReloadRejectsInvalidSet(t *testing.T) {
	registry, err := NewRegistry(DefaultDefinitions())
	require.NoError(t, err)

	before := registry.IDs()

	bad := []Definition{validHigherBetter("only", CategoryQuantitative, 0.5)}
	err = registry.Reload(bad)
	require.Error(t, err)

	// Rejected reload leaves the previous set in effect
	assert.Equal(t, before, registry.IDs())
}

func TestRegistryGet(t *testing.T) {
	registry, err := NewRegistry(DefaultDefinitions())
	require.NoError(t, err)

	def, ok := registry.Get("retention_d1")
	require.True(t, ok)
	assert.Equal(t, KindRate, def.Kind)

	_, ok = registry.Get("no_such_metric")
	assert.False(t, ok)
}

func TestStoreLoadFallsBackToDefaults(t *testing.T) {
	store := NewStore(t.TempDir())

	defs, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, len(DefaultDefinitions()), len(defs))
}

func TestStoreSaveRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	defs := []Definition{
		validHigherBetter("a", CategoryQuantitative, 0.70),
		validHigherBetter("c", CategoryQualitative, 0.30),
	}
	require.NoError(t, store.Save(defs))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, defs, loaded)
}
