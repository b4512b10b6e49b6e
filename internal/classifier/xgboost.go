// Package classifier evaluates gradient-boosted tree ensembles exported in
// XGBoost's JSON model format. Missing inputs (NaN) follow each split's
// learned default direction, so sparse vectors score without imputation.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrFeatureCount     = errors.New("feature count mismatch")
)

// Model is a loaded tree ensemble. It is immutable and safe for concurrent use.
type Model struct {
	columns    []string
	trees      []tree
	baseMargin float64
	objective  string
}

type tree struct {
	left      []int
	right     []int
	feature   []int
	condition []float64
	defLeft   []bool
}

// flexBools accepts XGBoost's default_left arrays, which are 0/1 ints in
// older exports and booleans in newer ones.
type flexBools []bool

func (f *flexBools) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, r := range raw {
		switch s := strings.TrimSpace(string(r)); s {
		case "true", "1":
			out[i] = true
		case "false", "0":
			out[i] = false
		default:
			return fmt.Errorf("default_left[%d]: unexpected value %s", i, s)
		}
	}
	*f = out
	return nil
}

type jsonTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     flexBools `json:"default_left"`
	SplitType       []int     `json:"split_type"`
}

type jsonModel struct {
	Learner struct {
		FeatureNames    []string `json:"feature_names"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []jsonTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumFeature string `json:"num_feature"`
			NumClass   string `json:"num_class"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

// LoadFile reads a JSON model from path. columns is the input order callers
// will use; it must match the model's feature names when the model has them.
func LoadFile(path string, columns []string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Load(data, columns)
}

// Load parses a JSON model document
func Load(data []byte, columns []string) (*Model, error) {
	var jm jsonModel
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	l := jm.Learner

	if name := l.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("%w: booster %q", ErrUnsupportedModel, name)
	}
	if nc := l.LearnerModelParam.NumClass; nc != "" && nc != "0" && nc != "1" {
		return nil, fmt.Errorf("%w: %s classes", ErrUnsupportedModel, nc)
	}
	obj := l.Objective.Name
	switch obj {
	case "binary:logistic", "reg:logistic", "binary:logitraw":
	default:
		return nil, fmt.Errorf("%w: objective %q", ErrUnsupportedModel, obj)
	}

	if len(l.FeatureNames) > 0 {
		if len(l.FeatureNames) != len(columns) {
			return nil, fmt.Errorf("%w: model has %d features, caller has %d", ErrFeatureCount, len(l.FeatureNames), len(columns))
		}
		for i := range columns {
			if l.FeatureNames[i] != columns[i] {
				return nil, fmt.Errorf("%w: column %d is %q in model, %q in input", ErrFeatureCount, i, l.FeatureNames[i], columns[i])
			}
		}
	} else if nf := l.LearnerModelParam.NumFeature; nf != "" {
		n, err := strconv.Atoi(nf)
		if err != nil {
			return nil, fmt.Errorf("decode model: num_feature %q: %w", nf, err)
		}
		if n != len(columns) {
			return nil, fmt.Errorf("%w: model has %d features, caller has %d", ErrFeatureCount, n, len(columns))
		}
	}

	base, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}

	m := &Model{
		columns:   append([]string(nil), columns...),
		objective: obj,
	}
	if obj == "binary:logitraw" {
		m.baseMargin = base
	} else {
		if base <= 0 || base >= 1 {
			return nil, fmt.Errorf("decode model: base_score %v outside (0,1)", base)
		}
		m.baseMargin = math.Log(base / (1 - base))
	}

	for i, jt := range l.GradientBooster.Model.Trees {
		t, err := buildTree(jt, len(columns))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, t)
	}
	if len(m.trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrUnsupportedModel)
	}
	return m, nil
}

func parseBaseScore(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return 0.5, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("decode model: base_score %q: %w", s, err)
	}
	return v, nil
}

func buildTree(jt jsonTree, numFeatures int) (tree, error) {
	n := len(jt.LeftChildren)
	if n == 0 {
		return tree{}, errors.New("empty tree")
	}
	if len(jt.RightChildren) != n || len(jt.SplitIndices) != n || len(jt.SplitConditions) != n || len(jt.DefaultLeft) != n {
		return tree{}, errors.New("node arrays have different lengths")
	}
	for i := 0; i < n; i++ {
		if i < len(jt.SplitType) && jt.SplitType[i] != 0 {
			return tree{}, fmt.Errorf("%w: categorical split at node %d", ErrUnsupportedModel, i)
		}
		l, r := jt.LeftChildren[i], jt.RightChildren[i]
		if l == -1 {
			continue
		}
		if l <= i || l >= n || r <= i || r >= n {
			return tree{}, fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if f := jt.SplitIndices[i]; f < 0 || f >= numFeatures {
			return tree{}, fmt.Errorf("node %d splits on feature %d of %d", i, f, numFeatures)
		}
	}
	return tree{
		left:      jt.LeftChildren,
		right:     jt.RightChildren,
		feature:   jt.SplitIndices,
		condition: jt.SplitConditions,
		defLeft:   jt.DefaultLeft,
	}, nil
}

func (t tree) leaf(x []float64) float64 {
	n := 0
	for t.left[n] != -1 {
		v := x[t.feature[n]]
		switch {
		case math.IsNaN(v):
			if t.defLeft[n] {
				n = t.left[n]
			} else {
				n = t.right[n]
			}
		case v < t.condition[n]:
			n = t.left[n]
		default:
			n = t.right[n]
		}
	}
	return t.condition[n]
}

// Columns returns the expected input order
func (m *Model) Columns() []string {
	return append([]string(nil), m.columns...)
}

// Margin returns the raw ensemble score before the logistic link
func (m *Model) Margin(x []float64) (float64, error) {
	if len(x) != len(m.columns) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrFeatureCount, len(x), len(m.columns))
	}
	sum := m.baseMargin
	for _, t := range m.trees {
		sum += t.leaf(x)
	}
	return sum, nil
}

// PredictProba returns the positive-class probability for x. NaN marks a missing value.
func (m *Model) PredictProba(x []float64) (float64, error) {
	margin, err := m.Margin(x)
	if err != nil {
		return 0, err
	}
	return 1 / (1 + math.Exp(-margin)), nil
}

// Objective returns the training objective recorded in the model
func (m *Model) Objective() string {
	return m.objective
}

// Trees returns the ensemble size
func (m *Model) Trees() int {
	return len(m.trees)
}
