package fake

import (
	"log"

	"github.com/pkg/errors"
)

// Main holds the options for generating a fake raw dataset, for trying
// the job out without the real S3 datasets.
type Main struct {
	Out    string `help:"Directory to write the song_data and log_data trees under."`
	Songs  int    `help:"Number of song metadata files to write."`
	Events int    `help:"Number of play events to spread across the log files."`
	Seed   int64  `help:"Random seed. Equal seeds write identical datasets."`
}

// NewMain gets a Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Out:    "fakedata",
		Songs:  200,
		Events: 5000,
	}
}

// Run writes the dataset.
func (m *Main) Run() error {
	if err := WriteDataset(m.Out, m.Songs, m.Events, m.Seed); err != nil {
		return errors.Wrap(err, "writing dataset")
	}
	log.Printf("wrote %d songs and %d events under %s", m.Songs, m.Events, m.Out)
	return nil
}
