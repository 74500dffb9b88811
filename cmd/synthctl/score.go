package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/score"
	"github.com/cwbudde/algo-synthctl/synth"
	"github.com/cwbudde/algo-synthctl/theory"
)

var (
	scoreNotes  string
	scoreScale  string
	scoreKey    string
	scoreGroup  bool
	scoreStop   bool
	scoreVolume float64
	scoreOffset float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the score events for a set of notes",
	Long: `Print the score events the player emits for the given notes, one
event per line, ready to be piped into the audio engine.

Without --notes the note of the loaded settings is played. With --scale
every note is first snapped onto the scale in --key. With --group the
notes are arranged by the activation mode of the settings.

Examples:
  synthctl score --notes 60,64,67
  synthctl score --preset arp.json --notes 60,63,66 --scale major --key D --group`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreNotes, "notes", "n", "", "Comma-separated MIDI note numbers")
	scoreCmd.Flags().StringVar(&scoreScale, "scale", "", "Snap notes onto a scale (major, major_pentatonic, minor_pentatonic, chromatic)")
	scoreCmd.Flags().StringVar(&scoreKey, "key", "C", "Key of --scale")
	scoreCmd.Flags().BoolVarP(&scoreGroup, "group", "g", false, "Arrange the notes by the activation mode of the settings")
	scoreCmd.Flags().BoolVar(&scoreStop, "stop", false, "Append a stop event for every note")
	scoreCmd.Flags().Float64Var(&scoreVolume, "volume", 1, "Volume factor")
	scoreCmd.Flags().Float64Var(&scoreOffset, "offset", 0, "Start offset in seconds")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadSettings(cfg)
	if err != nil {
		return err
	}

	notes, err := parseNotes(scoreNotes)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		notes = []int{int(s.MustValue(synth.Note))}
	}
	if scoreScale != "" {
		notes, err = snapNotes(notes, scoreScale, scoreKey)
		if err != nil {
			return err
		}
	}

	sink := score.NewWriterSink(os.Stdout)
	pcfg := cfg.PlayerConfig()
	pcfg.Logger = newLogger()
	p, err := player.New(sink, pcfg)
	if err != nil {
		return err
	}

	opts := []player.PlayOption{player.WithVolume(scoreVolume), player.WithOffset(scoreOffset)}
	if scoreGroup {
		err = p.PlayGroup(notes, s, opts...)
	} else {
		for _, n := range notes {
			if err = p.PlayNote(n, s, opts...); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}
	if scoreStop {
		for _, n := range notes {
			if err := p.StopNote(n); err != nil {
				return err
			}
		}
	}
	return sink.Err()
}

func parseNotes(raw string) ([]int, error) {
	var notes []int
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid note %q", f)
		}
		if n < player.MinNote || n > player.MaxNote {
			return nil, fmt.Errorf("note %d outside %d..%d", n, player.MinNote, player.MaxNote)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// snapNotes moves every note onto the named scale in key, keeping the
// result inside the playable range.
func snapNotes(notes []int, scaleName, keyName string) ([]int, error) {
	sc, err := theory.ScaleByName(scaleName)
	if err != nil {
		return nil, err
	}
	key, err := theory.ParseKey(keyName)
	if err != nil {
		return nil, err
	}
	inKey := theory.TransposeScale(sc, key)
	out := make([]int, len(notes))
	for i, n := range notes {
		m := int(theory.Nearest(float64(n), inKey))
		for m > player.MaxNote {
			m = theory.Transpose(m, -1)
		}
		for m < player.MinNote {
			m = theory.Transpose(m, 1)
		}
		out[i] = m
	}
	return out, nil
}
