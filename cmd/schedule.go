package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/symad/schedule"
)

// NewScheduleCommand returns the command printing the algorithm of a model.
func NewScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule MODEL",
		Short: "Print the scheduled algorithm of a model",
		Long: `Print the instruction list of a model under the configured sorting mode,
followed by the work-slot count and the instructions per level.`,
		Args: cobra.ExactArgs(1),
		RunE: runSchedule,
	}
}

func runSchedule(cmd *cobra.Command, args []string) error {
	_, _, f, err := load(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, f.String())
	fmt.Fprintf(w, "instructions: %d\nslots: %d\n", len(f.Algorithm()), f.NumSlots())
	for lvl, g := range schedule.Groups(f.Levels()) {
		fmt.Fprintf(w, "level %d: %d\n", lvl, len(g))
	}
	if free := f.FreeVariables(); len(free) > 0 {
		fmt.Fprintf(w, "free: %v\n", free)
	}
	return nil
}
