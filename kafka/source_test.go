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

package kafka

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"testing"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/elodina/go-avro"
	"github.com/linkedin/goavro"
	"github.com/pkg/errors"
)

func TestConfluentSourceDecode(t *testing.T) {
	regURL := StartFakeRegistry(t)
	source := NewConfluentSource()
	source.RegistryURL = regURL
	data := GetAvroEncodedEvent(t)
	val := append([]byte{0, 0, 0, 0, 1}, data...)

	raw, err := source.decodeAvroValue(val)
	if err != nil {
		t.Fatal(err)
	}
	e, err := datalake.DecodeEvent(raw)
	if err != nil {
		t.Fatalf("decoding re-encoded event: %v", err)
	}

	if e.Page != "NextSong" || e.TS != 1543449657796 {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Song != "Ain't No Sunshine" || e.Artist != "Sydney Youngblood" {
		t.Fatalf("unexpected song fields: %+v", e)
	}
	if e.UserID != "73" || e.SessionID != 954 {
		t.Fatalf("unexpected user fields: %+v", e)
	}
	if e.Length != 238.07955 {
		t.Fatalf("unexpected length: %v", e.Length)
	}
}

func TestConfluentSourceUnknownSchema(t *testing.T) {
	regURL := StartFakeRegistry(t)
	source := NewConfluentSource()
	source.RegistryURL = regURL
	data := GetAvroEncodedEvent(t)
	val := append([]byte{0, 0, 0, 0, 9}, data...)

	_, err := source.decodeAvroValue(val)
	if err == nil || !strings.Contains(err.Error(), "failed to get schema") {
		t.Fatalf("expected a registry miss, got %v", err)
	}
}

func TestConfluentSourceBadFraming(t *testing.T) {
	source := NewConfluentSource()
	if _, err := source.decodeAvroValue([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for an unframed value")
	}
	if _, err := source.decodeAvroValue([]byte{9, 0, 0, 0, 1, 2, 3, 4}); err == nil {
		t.Fatal("expected an error for a bad magic byte")
	}
}

// TestElodinaDecode checks that what goavro encodes, elodina reads back
// with the value types the JSON re-encoding expects.
func TestElodinaDecode(t *testing.T) {
	data := GetAvroEncodedEvent(t)

	schema, err := avro.ParseSchema(eventSchema)
	if err != nil {
		t.Fatal(err)
	}
	gomap, err := avroDecode(schema, data)
	if err != nil {
		t.Fatal(err)
	}

	if gomap["ts"].(int64) != 1543449657796 {
		t.Fatalf("unexpected ts: %v", gomap["ts"])
	}
	if gomap["status"].(int32) != 200 {
		t.Fatalf("unexpected status: %v", gomap["status"])
	}
	if gomap["song"].(string) != "Ain't No Sunshine" {
		t.Fatalf("union field should decode unwrapped: %v", gomap["song"])
	}
}

var eventValue = map[string]interface{}{
	"artist":        map[string]interface{}{"string": "Sydney Youngblood"},
	"auth":          "Logged In",
	"firstName":     map[string]interface{}{"string": "Jacob"},
	"gender":        map[string]interface{}{"string": "M"},
	"itemInSession": 53,
	"lastName":      map[string]interface{}{"string": "Klein"},
	"length":        map[string]interface{}{"double": 238.07955},
	"level":         "paid",
	"location":      map[string]interface{}{"string": "Tampa-St. Petersburg-Clearwater, FL"},
	"method":        "PUT",
	"page":          "NextSong",
	"registration":  map[string]interface{}{"double": 1.540558108796e+12},
	"sessionId":     954,
	"song":          map[string]interface{}{"string": "Ain't No Sunshine"},
	"status":        200,
	"ts":            1543449657796,
	"userAgent":     map[string]interface{}{"string": `"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_4)"`},
	"userId":        "73",
}

func GetAvroEncodedEvent(t *testing.T) []byte {
	codec, err := goavro.NewCodec(eventSchema)
	if err != nil {
		t.Fatal(err)
	}
	data, err := codec.BinaryFromNative([]byte{}, eventValue)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func StartFakeRegistry(t *testing.T) string {
	server := &http.Server{Addr: ":0", Handler: http.HandlerFunc(RegistryHandler)}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		t.Fatalf("starting fake registry listener: %v", err)
	}
	go func() {
		log.Printf("fake registry test server stopped: %v", server.Serve(ln))
	}()
	return ln.Addr().String()
}

func RegistryHandler(w http.ResponseWriter, r *http.Request) {
	var id int32
	_, err := fmt.Sscanf(r.URL.Path, "/schemas/ids/%d", &id)
	if err != nil {
		http.Error(w, errors.Wrap(err, "extracting id from path").Error(), http.StatusBadRequest)
		return
	}
	if id != 1 {
		http.Error(w, fmt.Sprintf("unknown id: %d", id), http.StatusNotFound)
		return
	}
	if err := json.NewEncoder(w).Encode(Schema{Schema: eventSchema, ID: 1}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

var eventSchema = `{
    "name": "PlayEvent",
    "namespace": "com.sparkify.events",
    "type": "record",
    "fields": [
        {"name": "artist", "type": ["null", "string"]},
        {"name": "auth", "type": "string"},
        {"name": "firstName", "type": ["null", "string"]},
        {"name": "gender", "type": ["null", "string"]},
        {"name": "itemInSession", "type": "int"},
        {"name": "lastName", "type": ["null", "string"]},
        {"name": "length", "type": ["null", "double"]},
        {"name": "level", "type": "string"},
        {"name": "location", "type": ["null", "string"]},
        {"name": "method", "type": "string"},
        {"name": "page", "type": "string"},
        {"name": "registration", "type": ["null", "double"]},
        {"name": "sessionId", "type": "long"},
        {"name": "song", "type": ["null", "string"]},
        {"name": "status", "type": "int"},
        {"name": "ts", "type": "long"},
        {"name": "userAgent", "type": ["null", "string"]},
        {"name": "userId", "type": "string"}
    ]
}`
