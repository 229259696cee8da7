package cmd

import (
	"io"

	"github.com/aabid0193/spark-datalake-etl/fake"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// GenMain is wrapped by NewGenCommand and only exported for testing purposes.
var GenMain *fake.Main

// NewGenCommand returns a new cobra command wrapping GenMain.
func NewGenCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	GenMain = fake.NewMain()
	genCommand := &cobra.Command{
		Use:   "gen",
		Short: "gen - write a fake raw dataset for testing the pipeline",
		Long: `Writes a song_data and log_data tree of fake JSON records under the
output directory, shaped like the real datasets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenMain.Run()
		},
	}
	flags := genCommand.Flags()
	err = commandeer.Flags(flags, GenMain)
	if err != nil {
		panic(err)
	}
	return genCommand
}

func init() {
	subcommandFns["gen"] = NewGenCommand
}
