package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fleet-trip-import/internal/batch"
)

// correctionFlags are the --set and --corrections flags shared by preview
// and import.
type correctionFlags struct {
	inline []string
	file   string
}

func (f *correctionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.inline, "set", nil,
		"Correct a row before importing: ROW:FIELD=VALUE or ROW:expense.CATEGORY=AMOUNT (repeatable)")
	cmd.Flags().StringVar(&f.file, "corrections", "", "YAML file of row corrections")
}

// load returns the file corrections followed by the inline ones.
func (f *correctionFlags) load() ([]batch.Correction, error) {
	var out []batch.Correction
	if f.file != "" {
		fromFile, err := batch.LoadCorrections(f.file)
		if err != nil {
			return nil, err
		}
		out = append(out, fromFile...)
	}
	inline, err := batch.ParseCorrections(f.inline)
	if err != nil {
		return nil, err
	}
	return append(out, inline...), nil
}
