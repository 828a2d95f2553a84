package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/function"
)

const (
	inputFlag        = "input"
	outputFlag       = "output"
	compactFlag      = "compact"
	symmetricFlag    = "symmetric"
	uncompressedFlag = "uncompressed"
	hessianFlag      = "hessian"
	symbolicFlag     = "symbolic"
)

// NewJacobianCommand returns the command computing a sparse Jacobian or
// Hessian of a model.
func NewJacobianCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jacobian MODEL",
		Short: "Compute the Jacobian of an output with respect to an input",
		Long: `Compute the Jacobian of an output with respect to an input by graph coloring
and compressed forward or adjoint sweeps. With --hessian the output must be
scalar and the Hessian is computed as the symmetric Jacobian of the gradient.

The structure is always printed; values are printed when the model lists
input values or --set provides them.`,
		Args: cobra.ExactArgs(1),
		RunE: runJacobian,
	}
	flags := cmd.Flags()
	flags.String(inputFlag, "", "input name or index (default: the first input)")
	flags.String(outputFlag, "", "output name or index (default: the first output)")
	flags.Bool(compactFlag, false, "index by nonzeros instead of elements")
	flags.Bool(symmetricFlag, false, "the Jacobian is symmetric: star coloring with forward sweeps")
	flags.Bool(uncompressedFlag, false, "one forward direction per input nonzero")
	flags.Bool(hessianFlag, false, "compute the Hessian of a scalar output")
	flags.Bool(symbolicFlag, false, "print the Jacobian expression")
	flags.StringArray(setFlag, nil, "input values as name=v1,v2,...")
	return cmd
}

type jacobianResult struct {
	Of         string      `json:"of"`
	Wrt        string      `json:"wrt"`
	Rows       int         `json:"rows"`
	Cols       int         `json:"cols"`
	Nnz        int         `json:"nnz"`
	Pattern    []string    `json:"pattern"`
	Expression string      `json:"expression,omitempty"`
	Values     [][]float64 `json:"values,omitempty"`
}

func runJacobian(cmd *cobra.Command, args []string) error {
	env, m, f, err := load(args[0])
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	inputNames := make([]string, f.NumIn())
	for i := range inputNames {
		inputNames[i] = f.Input(i).Name()
	}
	outputNames := make([]string, f.NumOut())
	for i := range outputNames {
		outputNames[i] = outputName(m, i)
	}
	in, _ := flags.GetString(inputFlag)
	iind, err := index("input", in, inputNames)
	if err != nil {
		return err
	}
	out, _ := flags.GetString(outputFlag)
	oind, err := index("output", out, outputNames)
	if err != nil {
		return err
	}

	var opts []function.JacOption
	if on, _ := flags.GetBool(compactFlag); on {
		opts = append(opts, function.Compact())
	}
	if on, _ := flags.GetBool(symmetricFlag); on {
		opts = append(opts, function.Symmetric())
	}
	if on, _ := flags.GetBool(uncompressedFlag); on {
		opts = append(opts, function.Uncompressed())
	}

	var j *expr.Node
	if on, _ := flags.GetBool(hessianFlag); on {
		j, _, err = f.Hessian(iind, oind, opts...)
	} else {
		j, err = f.Jacobian(iind, oind, opts...)
	}
	if err != nil {
		return err
	}

	res := jacobianResult{
		Of:      outputNames[oind],
		Wrt:     inputNames[iind],
		Rows:    j.Rows(),
		Cols:    j.Cols(),
		Nnz:     j.Nnz(),
		Pattern: strings.Split(strings.TrimRight(j.Sparsity().Spy(), "\n"), "\n"),
	}
	if on, _ := flags.GetBool(symbolicFlag); on {
		res.Expression = j.String()
	}

	overrides, _ := flags.GetStringArray(setFlag)
	if len(m.Values) > 0 || len(overrides) > 0 {
		vals, err := arguments(m, f, overrides)
		if err != nil {
			return err
		}
		jf, err := function.New("jac_"+f.Name(), f.Inputs(), []*expr.Node{j}, env.opts...)
		if err != nil {
			return err
		}
		jv, err := jf.Eval(vals...)
		if err != nil {
			return err
		}
		res.Values = newResult("", jv[0]).Values
	}
	env.log.Debug("jacobian computed",
		zap.String("function", f.Name()),
		zap.String("of", res.Of),
		zap.String("wrt", res.Wrt),
		zap.Int("nnz", res.Nnz))
	return printYAML(cmd.OutOrStdout(), res)
}
