package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/mayfly"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synthctl/analysis"
	"github.com/cwbudde/algo-synthctl/internal/wavio"
	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/preset"
	"github.com/cwbudde/algo-synthctl/synth"
)

const defaultFitParams = "amp_attack,amp_decay,amp_sustain,amp_release,filter_frequency,filter_resonance"

var (
	fitReference  string
	fitParams     string
	fitNote       int
	fitDuration   float64
	fitEvals      int
	fitPop        int
	fitRoundEvals int
	fitVariant    string
	fitSeed       int64
	fitOutput     string
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit slider positions to a reference recording",
	Long: `Search the slider space of the selected parameters for the settings
whose preview render is closest to a reference recording, and write the
best settings as a preset.

Examples:
  synthctl fit --reference pluck.wav --note 60 -o pluck.json
  synthctl fit --reference pad.wav --params amp_attack,amp_release --evals 800 --variant olce`,
	RunE: runFit,
}

func init() {
	fitCmd.Flags().StringVarP(&fitReference, "reference", "r", "", "Reference WAV file")
	fitCmd.Flags().StringVar(&fitParams, "params", defaultFitParams, "Comma-separated parameters to fit")
	fitCmd.Flags().IntVar(&fitNote, "note", 69, "MIDI note of the reference")
	fitCmd.Flags().Float64Var(&fitDuration, "duration", 0, "Held duration of the reference note (default from settings)")
	fitCmd.Flags().IntVar(&fitEvals, "evals", 400, "Maximum objective evaluations")
	fitCmd.Flags().IntVar(&fitPop, "pop", 10, "Mayfly population size")
	fitCmd.Flags().IntVar(&fitRoundEvals, "round-evals", 120, "Evaluations per mayfly round")
	fitCmd.Flags().StringVar(&fitVariant, "variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	fitCmd.Flags().Int64Var(&fitSeed, "seed", 1, "Random seed")
	fitCmd.Flags().StringVarP(&fitOutput, "output", "o", "fitted.json", "Output preset path")
	_ = fitCmd.MarkFlagRequired("reference")
}

type fitProblem struct {
	base       *synth.Settings
	ids        []synth.ParamID
	reference  []float64
	player     player.Config
	note       int
	duration   float64
	sampleRate int
}

// apply returns a copy of base with the sliders of p.ids moved to pos.
func (p *fitProblem) apply(pos []float64) *synth.Settings {
	s := p.base.Clone()
	for i, id := range p.ids {
		s.SetVisualValue(id, pos[i])
	}
	return s
}

func (p *fitProblem) evaluate(pos []float64) (analysis.Metrics, error) {
	s := p.apply(pos)
	st, err := renderPreview(s, p.player, p.note, p.duration, 0, p.sampleRate, nil)
	if err != nil {
		return analysis.Metrics{}, err
	}
	return analysis.Compare(p.reference, wavio.StereoToMono(st), p.sampleRate), nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := loadSettings(cfg)
	if err != nil {
		return err
	}
	ids, err := parseParamList(fitParams)
	if err != nil {
		return err
	}
	reference, err := wavio.ReadMonoAt(fitReference, cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("read reference: %w", err)
	}
	duration := fitDuration
	if duration <= 0 {
		duration = base.MustValue(synth.Duration)
	}
	if fitPop < 2 {
		return fmt.Errorf("--pop must be >= 2")
	}

	prob := &fitProblem{
		base:       base,
		ids:        ids,
		reference:  reference,
		player:     cfg.PlayerConfig(),
		note:       fitNote,
		duration:   duration,
		sampleRate: cfg.SampleRate,
	}

	start := time.Now()
	bestPos := make([]float64, len(ids))
	for i, id := range ids {
		bestPos[i], _ = base.VisualValue(id)
	}
	bestM, err := prob.evaluate(bestPos)
	if err != nil {
		return fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestM.Score, bestM.Similarity*100.0)

	evals := 1
	improves := 0
	variant := strings.ToLower(fitVariant)
	for round := 1; evals < fitEvals; round++ {
		budget := min(fitRoundEvals, fitEvals-evals)
		iters := max(1, budget/(2*fitPop))
		mcfg, err := newMayflyConfig(variant, fitPop, len(ids), iters)
		if err != nil {
			return err
		}
		mcfg.Rand = rand.New(rand.NewSource(fitSeed + int64(round)*7919))
		mcfg.ObjectiveFunc = func(pos []float64) float64 {
			if evals >= fitEvals {
				return bestM.Score + 1.0
			}
			evals++
			m, err := prob.evaluate(pos)
			if err != nil {
				return bestM.Score + 0.8
			}
			if m.Score < bestM.Score {
				bestM = m
				copy(bestPos, pos)
				improves++
				fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", improves, evals, m.Score, m.Similarity*100.0)
			}
			return m.Score
		}
		if _, err := runMayfly(mcfg); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
			break
		}
	}

	best := prob.apply(bestPos)
	if err := preset.SaveJSON(fitOutput, best); err != nil {
		return err
	}
	fmt.Printf("Done in %.1fs: evals=%d score=%.4f similarity=%.2f%% lag=%d\n",
		time.Since(start).Seconds(), evals, bestM.Score, bestM.Similarity*100.0, bestM.LagSamples)
	for i, id := range ids {
		v, _ := best.Value(id)
		fmt.Printf("  %-24s visual=%.4f real=%.6g\n", id, bestPos[i], v)
	}
	fmt.Printf("Wrote %s\n", fitOutput)
	return nil
}

func parseParamList(raw string) ([]synth.ParamID, error) {
	var ids []synth.ParamID
	seen := make(map[synth.ParamID]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := synth.ParseParamID(name)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no parameters to fit")
	}
	return ids, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
