package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	yamlv3 "go.yaml.in/yaml/v3"
	"sigs.k8s.io/yaml"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/function"
	"github.com/katalvlaran/symad/internal/logger"
	"github.com/katalvlaran/symad/linsol"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/parse"
	"github.com/katalvlaran/symad/plugin"
	"github.com/katalvlaran/symad/schedule"
	"github.com/katalvlaran/symad/sparsity"
)

// Model is the YAML description of a function.
//
//	name: f
//	inputs:
//	  - {name: x}
//	  - {name: v, rows: 3, cols: 3, pattern: diag}
//	outputs:
//	  - {name: f, expr: "sin(x * sum(v)) + sq(x)"}
//	values:
//	  x: [1]
//	  v: [1, 2, 3]
type Model struct {
	Name    string               `json:"name" yaml:"name"`
	Solver  string               `json:"solver,omitempty" yaml:"solver,omitempty"`
	Inputs  []Input              `json:"inputs" yaml:"inputs"`
	Outputs []Output             `json:"outputs" yaml:"outputs"`
	Values  map[string][]float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

// Input declares a symbolic input. Rows and cols default to 1; pattern is
// dense (default) or diag.
type Input struct {
	Name    string `json:"name" yaml:"name"`
	Rows    int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols    int    `json:"cols,omitempty" yaml:"cols,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Output names an output expression.
type Output struct {
	Name string `json:"name" yaml:"name"`
	Expr string `json:"expr" yaml:"expr"`
}

// LoadModel reads a model file. The file is decoded as YAML 1.2, so plain
// scalars such as y, n, on and off stay strings when used as names.
func LoadModel(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m Model
	dec := yamlv3.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = "f"
	}
	return &m, nil
}

func (in Input) sparsity() (sparsity.Sparsity, error) {
	r, c := in.Rows, in.Cols
	if r == 0 && c == 0 {
		r, c = 1, 1
	}
	switch in.Pattern {
	case "", "dense":
		return sparsity.Dense(r, c), nil
	case "diag":
		if r != c {
			return sparsity.Sparsity{}, fmt.Errorf("input %s: diag pattern needs a square shape, got %dx%d", in.Name, r, c)
		}
		return sparsity.Diag(r), nil
	}
	return sparsity.Sparsity{}, fmt.Errorf("input %s: unknown pattern %q", in.Name, in.Pattern)
}

// environment carries the settings shared by all commands.
type environment struct {
	log      logger.Logger
	registry *plugin.Registry
	opts     []function.Option
}

// newEnvironment reads the configuration.
func newEnvironment() (*environment, error) {
	log, err := logger.NewLogger(viper.GetString(logFormatConf), viper.GetString(logLevelConf))
	if err != nil {
		return nil, err
	}
	mode, err := schedule.ParseMode(viper.GetString(sortingConf))
	if err != nil {
		return nil, err
	}
	maxDirections := viper.GetInt(maxDirectionsConf)
	if maxDirections < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", maxDirectionsConf, maxDirections)
	}
	w := viper.GetFloat64(adWeightConf)
	if w < 0 || w > 1 {
		return nil, fmt.Errorf("%s must lie in [0, 1], got %g", adWeightConf, w)
	}
	parallel := viper.GetInt(parallelConf)
	if parallel < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", parallelConf, parallel)
	}

	registry := plugin.NewRegistry(linsol.Infix,
		plugin.WithLoader(plugin.LibraryLoader{Paths: viper.GetStringSlice(pluginPathConf)}),
		plugin.WithLogger(log))
	if err := linsol.Register(registry); err != nil {
		return nil, err
	}

	return &environment{
		log:      log,
		registry: registry,
		opts: []function.Option{
			function.WithSorting(mode),
			function.WithMaxDirections(maxDirections),
			function.WithADWeight(w),
			function.WithLiveVariables(viper.GetBool(liveVariablesConf)),
			function.WithParallelLevels(parallel),
			function.WithLogger(log),
			function.WithRegistry(registry),
		},
	}, nil
}

// compile builds the function of m.
func (e *environment) compile(m *Model) (*function.Function, error) {
	popts := []parse.Option{parse.WithLogger(e.log)}
	if m.Solver != "" {
		popts = append(popts, parse.WithSolver(m.Solver))
	}
	p, err := parse.New(popts...)
	if err != nil {
		return nil, err
	}
	symbols := make(map[string]*expr.Node, len(m.Inputs))
	inputs := make([]*expr.Node, len(m.Inputs))
	for i, in := range m.Inputs {
		if _, dup := symbols[in.Name]; dup || in.Name == "" {
			return nil, fmt.Errorf("input %d: missing or duplicate name %q", i, in.Name)
		}
		sp, err := in.sparsity()
		if err != nil {
			return nil, err
		}
		inputs[i] = expr.SymSparse(in.Name, sp)
		symbols[in.Name] = inputs[i]
	}
	outputs := make([]*expr.Node, len(m.Outputs))
	for i, out := range m.Outputs {
		n, err := p.Parse(out.Expr, symbols)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", out.Name, err)
		}
		outputs[i] = n
	}
	return function.New(m.Name, inputs, outputs, e.opts...)
}

// arguments returns the input values of m, with overrides of the form
// name=v1,v2,... taking precedence over the model values.
func arguments(m *Model, f *function.Function, overrides []string) ([]*matrix.Sparse, error) {
	values := make(map[string][]float64, len(m.Values))
	for k, v := range m.Values {
		values[k] = v
	}
	for _, o := range overrides {
		name, list, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("invalid value %q, want name=v1,v2,...", o)
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q: %w", o, err)
			}
			vals = append(vals, v)
		}
		values[name] = vals
	}
	args := make([]*matrix.Sparse, f.NumIn())
	for i := range args {
		x := f.Input(i)
		vals, ok := values[x.Name()]
		if !ok {
			return nil, fmt.Errorf("missing value for input %s", x.Name())
		}
		a, err := matrix.New(x.Sparsity(), vals)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", x.Name(), err)
		}
		args[i] = a
	}
	return args, nil
}

// Result is the printed form of a matrix.
type Result struct {
	Name   string      `json:"name"`
	Rows   int         `json:"rows"`
	Cols   int         `json:"cols"`
	Nnz    int         `json:"nnz"`
	Values [][]float64 `json:"values,omitempty"`
}

func newResult(name string, m *matrix.Sparse) Result {
	r := Result{Name: name, Rows: m.Rows(), Cols: m.Cols(), Nnz: m.Nnz()}
	if d := matrix.ToDense(m); d != nil {
		r.Values = make([][]float64, m.Rows())
		for i := range r.Values {
			r.Values[i] = d.RawRowView(i)
		}
	}
	return r
}

func outputName(m *Model, i int) string {
	if i < len(m.Outputs) && m.Outputs[i].Name != "" {
		return m.Outputs[i].Name
	}
	return fmt.Sprintf("o%d", i)
}

func printYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
