package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const setFlag = "set"

// NewEvalCommand returns the command evaluating a model numerically.
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval MODEL",
		Short: "Evaluate the outputs of a model",
		Long: `Evaluate the outputs of a model at the values listed in the model file.
Values are the structural nonzeros of each input in column-major order and
may be overridden with --set name=v1,v2,...`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
	}
	cmd.Flags().StringArray(setFlag, nil, "input values as name=v1,v2,...")
	return cmd
}

type evalResult struct {
	Name    string   `json:"name"`
	Outputs []Result `json:"outputs"`
}

func runEval(cmd *cobra.Command, args []string) error {
	env, m, f, err := load(args[0])
	if err != nil {
		return err
	}
	overrides, _ := cmd.Flags().GetStringArray(setFlag)
	in, err := arguments(m, f, overrides)
	if err != nil {
		return err
	}
	out, err := f.Eval(in...)
	if err != nil {
		return err
	}
	res := evalResult{Name: f.Name()}
	for i, o := range out {
		res.Outputs = append(res.Outputs, newResult(outputName(m, i), o))
	}
	env.log.Debug("evaluated", zap.String("function", f.Name()), zap.Int("outputs", len(out)))
	return printYAML(cmd.OutOrStdout(), res)
}
