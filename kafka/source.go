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

// Package kafka consumes play events from Kafka and lands them in the
// raw dataset layout, so events streamed through a broker end up where
// the batch job reads.
package kafka

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"sync"

	"github.com/Shopify/sarama"
	cluster "github.com/bsm/sarama-cluster"
	"github.com/elodina/go-avro"
	"github.com/pkg/errors"
)

// Source reads messages from kafka and yields each value as a
// json.RawMessage. Record returns io.EOF once MaxMsgs messages have
// been consumed, or when the consumer shuts down.
type Source struct {
	Hosts   []string
	Topics  []string
	Group   string
	Type    string
	MaxMsgs int
	numMsgs int

	consumer *cluster.Consumer
	messages <-chan *sarama.ConsumerMessage
}

// NewSource gets a new Source.
func NewSource() *Source {
	return &Source{
		Hosts:  []string{"localhost:9092"},
		Topics: []string{"events"},
		Group:  "group0",
		Type:   "json",
	}
}

// Record returns the value of the next kafka message. The offset is
// marked before the value is validated; a poison message gets dropped
// by the caller instead of being redelivered to the group forever.
func (s *Source) Record() (interface{}, error) {
	if s.MaxMsgs > 0 {
		s.numMsgs++
		if s.numMsgs > s.MaxMsgs {
			return nil, io.EOF
		}
	}
	msg, ok := <-s.messages
	if !ok {
		return nil, io.EOF
	}
	s.consumer.MarkOffset(msg, "")
	switch s.Type {
	case "json":
		if !json.Valid(msg.Value) {
			return nil, errors.Errorf("message at %s/%d/%d is not valid json", msg.Topic, msg.Partition, msg.Offset)
		}
		return json.RawMessage(msg.Value), nil
	case "raw":
		return msg, nil
	default:
		return nil, errors.Errorf("unsupported kafka message type: '%v'", s.Type)
	}
}

// Open initializes the kafka consumer.
func (s *Source) Open() error {
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	config := cluster.NewConfig()
	config.Config.Version = sarama.V0_10_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Group.Return.Notifications = true

	var err error
	s.consumer, err = cluster.NewConsumer(s.Hosts, s.Group, s.Topics, config)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}
	s.messages = s.consumer.Messages()

	go func() {
		for err := range s.consumer.Errors() {
			log.Printf("kafka error: %s", err.Error())
		}
	}()
	go func() {
		for ntf := range s.consumer.Notifications() {
			log.Printf("kafka rebalanced: %+v", ntf)
		}
	}()
	return nil
}

// Close closes the underlying kafka consumer.
func (s *Source) Close() error {
	err := s.consumer.Close()
	return errors.Wrap(err, "closing kafka consumer")
}

// ConfluentSource reads Confluent-framed Avro messages, fetching writer
// schemas from a schema registry, and yields each record re-encoded as
// JSON. The play event schema is flat, so the decoded Avro map
// round-trips to the same JSON the log files carry.
type ConfluentSource struct {
	Source
	RegistryURL string
	lock        sync.RWMutex
	cache       map[int32]avro.Schema
}

// NewConfluentSource returns a new ConfluentSource.
func NewConfluentSource() *ConfluentSource {
	src := &ConfluentSource{
		cache: make(map[int32]avro.Schema),
	}
	src.Type = "raw"
	return src
}

// Record returns the next value from kafka as JSON.
func (s *ConfluentSource) Record() (interface{}, error) {
	rec, err := s.Source.Record()
	if err != nil {
		return nil, err
	}
	msg, ok := rec.(*sarama.ConsumerMessage)
	if !ok {
		return nil, errors.Errorf("record is not a raw kafka message, but a %T", rec)
	}
	return s.decodeAvroValue(msg.Value)
}

func (s *ConfluentSource) decodeAvroValue(val []byte) (json.RawMessage, error) {
	if len(val) < 6 || val[0] != 0 {
		return nil, errors.Errorf("value is not confluent avro framed (len %d)", len(val))
	}
	id := int32(binary.BigEndian.Uint32(val[1:]))
	schema, err := s.getSchema(id)
	if err != nil {
		return nil, errors.Wrap(err, "getting avro schema")
	}
	rec, err := avroDecode(schema, val[5:])
	if err != nil {
		return nil, errors.Wrap(err, "decoding avro record")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "re-encoding avro record")
	}
	return json.RawMessage(raw), nil
}

// Schema is the registry's representation of one registered schema.
type Schema struct {
	Schema  string `json:"schema"`
	Subject string `json:"subject"`
	Version int    `json:"version"`
	ID      int    `json:"id"`
}

func (s *ConfluentSource) getSchema(id int32) (avro.Schema, error) {
	s.lock.RLock()
	if schema, ok := s.cache[id]; ok {
		s.lock.RUnlock()
		return schema, nil
	}
	s.lock.RUnlock()
	s.lock.Lock()
	defer s.lock.Unlock()
	r, err := http.Get(fmt.Sprintf("http://%s/schemas/ids/%d", s.RegistryURL, id))
	if err != nil {
		return nil, errors.Wrap(err, "getting schema from registry")
	}
	defer r.Body.Close()
	if r.StatusCode >= 300 {
		bod, err := ioutil.ReadAll(r.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get schema, code: %d, no body", r.StatusCode)
		}
		return nil, errors.Errorf("failed to get schema, code: %d, resp: %s", r.StatusCode, bod)
	}
	schema := &Schema{}
	if err := json.NewDecoder(r.Body).Decode(schema); err != nil {
		return nil, errors.Wrap(err, "decoding schema from registry")
	}
	parsed, err := avro.ParseSchema(schema.Schema)
	if err != nil {
		return nil, errors.Wrap(err, "parsing schema")
	}
	s.cache[id] = parsed
	return parsed, nil
}

func avroDecode(schema avro.Schema, data []byte) (map[string]interface{}, error) {
	reader := avro.NewGenericDatumReader()
	reader.SetSchema(schema)
	decoder := avro.NewBinaryDecoder(data)
	rec := avro.NewGenericRecord(schema)
	if err := reader.Read(rec, decoder); err != nil {
		return nil, errors.Wrap(err, "reading generic datum")
	}
	return rec.Map(), nil
}
