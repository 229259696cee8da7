// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package kafkagen produces fake play events to a Kafka topic, for
// exercising the landing pipeline without a real event stream.
package kafkagen

import (
	"encoding/json"
	"log"
	"time"

	"github.com/Shopify/sarama"
	"github.com/aabid0193/spark-datalake-etl/fake"
	"github.com/pkg/errors"
)

// Main holds the execution state for the kafka generator.
type Main struct {
	Hosts []string      `help:"Comma separated list of Kafka hosts and ports"`
	Topic string        `help:"Kafka topic to produce to"`
	Rate  time.Duration `help:"Delay between events. Zero produces as fast as the broker accepts."`
	Num   int           `help:"Number of events to produce. 0 means run until interrupted."`
	Songs int           `help:"Size of the song pool events draw titles from."`
	Seed  int64         `help:"Random seed."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Hosts: []string{"localhost:9092"},
		Topic: "events",
		Rate:  time.Second,
		Songs: 200,
	}
}

// JSONEvent implements the sarama.Encoder interface for Event using json.
// Event is embedded (rather than a defined type) so the Length method
// required by sarama.Encoder doesn't collide with the event's Length
// field; encoding/json inlines the embedded struct, so the bytes on the
// wire are the same.
type JSONEvent struct {
	fake.Event
}

// Encode marshals the event to json.
func (e JSONEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Length returns the length of the marshalled json.
func (e JSONEvent) Length() int {
	bytes, _ := e.Encode()
	return len(bytes)
}

// Run produces events until Num is reached.
func (m *Main) Run() error {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(m.Hosts, conf)
	if err != nil {
		return errors.Wrap(err, "getting new producer")
	}
	defer producer.Close()

	songs := fake.NewSongGenerator(m.Seed).Songs(m.Songs)
	events := fake.NewEventGenerator(m.Seed+1, songs)

	var tick <-chan time.Time
	if m.Rate > 0 {
		ticker := time.NewTicker(m.Rate)
		defer ticker.Stop()
		tick = ticker.C
	}
	for sent := 0; m.Num == 0 || sent < m.Num; sent++ {
		ev := events.Event()
		msg := &sarama.ProducerMessage{Topic: m.Topic, Value: JSONEvent{*ev}}
		if _, _, err := producer.SendMessage(msg); err != nil {
			log.Printf("error sending message: '%v', backing off", err)
			time.Sleep(10 * time.Second)
		}
		if tick != nil {
			<-tick
		}
	}
	log.Printf("produced %d events to %s", m.Num, m.Topic)
	return nil
}
