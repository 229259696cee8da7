package cmd

import (
	"io"
	"log"
	"time"

	"github.com/aabid0193/spark-datalake-etl/etl"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// ETLMain is wrapped by NewETLCommand and only exported for testing purposes.
var ETLMain *etl.Main

// NewETLCommand returns a new cobra command wrapping ETLMain.
func NewETLCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	ETLMain = etl.NewMain()
	etlCommand := &cobra.Command{
		Use:   "etl",
		Short: "etl - build the star schema tables from the raw datasets",
		Long: `Scans song_data and log_data under the input root, then writes the
songs, artists, users, time, and songplays tables under the output
root as partitioned Snappy Parquet. Inputs and outputs may be local
paths or s3:// URIs. Each run replaces the previous contents of each
table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = ETLMain.Run()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := etlCommand.Flags()
	err = commandeer.Flags(flags, ETLMain)
	if err != nil {
		panic(err)
	}
	return etlCommand
}

func init() {
	subcommandFns["etl"] = NewETLCommand
}
