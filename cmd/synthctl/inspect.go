package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synthctl/synth"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print every parameter with its real value, slider position and range",
	Long: `Print the parameter table of the loaded settings.

Examples:
  synthctl inspect
  synthctl inspect --preset lead.json`,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadSettings(cfg)
	if err != nil {
		return err
	}
	return writeParamTable(os.Stdout, s)
}

func writeParamTable(out io.Writer, s *synth.Settings) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREAL\tVISUAL\tMIN\tMAX\tLAW")
	for _, id := range synth.AllParams() {
		p, err := s.Var(id)
		if err != nil {
			return err
		}
		min, _ := s.Min(id)
		max, _ := s.Max(id)
		fmt.Fprintf(w, "%d\t%s\t%.6g\t%.4f\t%.6g\t%.6g\t%s\n",
			int(id), id, p.Real(), p.Visual(), min, max, p.Law().Kind)
	}
	fmt.Fprintf(w, "\ndelay=%v reverb=%v pitch_mod=%v freq_mod=%v exp_factor=%g\n",
		s.EnableDelay, s.EnableReverb, s.EnablePitchModulation, s.EnableFrequencyModulation, s.ExpFactor())
	return w.Flush()
}
