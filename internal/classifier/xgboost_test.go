package classifier

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two stumps: tree 0 splits on column a (missing goes left),
// tree 1 splits on column b (missing goes right).
const stumpModel = `{
  "learner": {
    "feature_names": ["a", "b"],
    "gradient_booster": {
      "name": "gbtree",
      "model": {
        "trees": [
          {
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [0, 0, 0],
            "split_conditions": [2.0, -0.4, 0.6],
            "default_left": [1, 0, 0],
            "split_type": [0, 0, 0]
          },
          {
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [1, 0, 0],
            "split_conditions": [1.0, 0.1, -0.2],
            "default_left": [false, false, false]
          }
        ]
      }
    },
    "learner_model_param": {"base_score": "5E-1", "num_feature": "2", "num_class": "0"},
    "objective": {"name": "binary:logistic"}
  },
  "version": [2, 0, 3]
}`

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func TestPredictProba(t *testing.T) {
	m, err := Load([]byte(stumpModel), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Trees())
	assert.Equal(t, "binary:logistic", m.Objective())

	nan := math.NaN()
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"all missing follows defaults", []float64{nan, nan}, sigmoid(-0.4 - 0.2)},
		{"both present", []float64{3, 0}, sigmoid(0.6 + 0.1)},
		{"split condition is strict less-than", []float64{2, 1}, sigmoid(0.6 - 0.2)},
		{"one missing", []float64{0, nan}, sigmoid(-0.4 - 0.2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.PredictProba(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p, 1e-12)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		})
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	m, err := Load([]byte(stumpModel), []string{"a", "b"})
	require.NoError(t, err)

	_, err = m.PredictProba([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureCount)
}

func TestLoadValidatesColumns(t *testing.T) {
	_, err := Load([]byte(stumpModel), []string{"b", "a"})
	assert.ErrorIs(t, err, ErrFeatureCount)

	_, err = Load([]byte(stumpModel), []string{"a"})
	assert.ErrorIs(t, err, ErrFeatureCount)
}

func TestLoadRejectsUnsupported(t *testing.T) {
	_, err := Load([]byte(`{"learner":{"gradient_booster":{"name":"gblinear"},"objective":{"name":"binary:logistic"}}}`), nil)
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = Load([]byte(`{"learner":{"objective":{"name":"multi:softprob"}}}`), nil)
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = Load([]byte(`not json`), nil)
	assert.Error(t, err)
}

func TestParseBaseScore(t *testing.T) {
	for in, want := range map[string]float64{"5E-1": 0.5, "[2.5E-1]": 0.25, "": 0.5} {
		got, err := parseBaseScore(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(stumpModel), 0o600))

	m, err := LoadFile(path, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Columns())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestConcurrentPredict(t *testing.T) {
	m, err := Load([]byte(stumpModel), []string{"a", "b"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			_, err := m.PredictProba([]float64{v, math.NaN()})
			assert.NoError(t, err)
		}(float64(i % 4))
	}
	wg.Wait()
}
