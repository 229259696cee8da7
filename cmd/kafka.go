package cmd

import (
	"io"

	"github.com/aabid0193/spark-datalake-etl/kafka"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// KafkaMain is wrapped by NewKafkaCommand and only exported for testing
// purposes.
var KafkaMain *kafka.Main

// NewKafkaCommand returns a new cobra command wrapping KafkaMain.
func NewKafkaCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	KafkaMain = kafka.NewMain()
	kafkaCommand := &cobra.Command{
		Use:   "kafka",
		Short: "kafka - land play events from Kafka into the log_data layout",
		Long: `Consumes play events from Kafka topics, as JSON or Confluent Avro,
and appends them to day files laid out like log_data so the etl
command can process them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return KafkaMain.Run()
		},
	}
	flags := kafkaCommand.Flags()
	err = commandeer.Flags(flags, KafkaMain)
	if err != nil {
		panic(err)
	}
	return kafkaCommand
}

func init() {
	subcommandFns["kafka"] = NewKafkaCommand
}
