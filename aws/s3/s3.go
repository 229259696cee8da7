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

// Package s3 provides a raw source over JSON datasets in S3 and a sink
// which publishes finished Parquet tables back to a bucket.
package s3

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// ParseURI splits an s3://, s3a:// or s3n:// URI into bucket and key
// prefix. ok is false when the URI has some other scheme (or none), in
// which case the caller should treat it as a local path.
func ParseURI(uri string) (bucket, prefix string, ok bool) {
	parts := strings.SplitN(uri, "://", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	switch parts[0] {
	case "s3", "s3a", "s3n":
	default:
		return "", "", false
	}
	rest := strings.TrimPrefix(parts[1], "/")
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return rest, "", true
	}
	return rest[:slash], strings.Trim(rest[slash:], "/"), true
}

// RawSource is a datalake.RawSource which hands out the .json objects
// under a bucket prefix. The object list is fetched up front; bodies are
// fetched lazily as NextReader is called.
type RawSource struct {
	bucket string
	prefix string
	region string

	s3     *s3.S3
	sess   *session.Session
	keys   []string
	objIdx *uint64
}

// NewRawSource lists the .json objects under prefix in bucket and
// returns a RawSource over them.
func NewRawSource(region, bucket, prefix string) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		region: region,
		bucket: bucket,
		prefix: prefix,

		objIdx: &idx,
	}
	var err error
	rs.sess, err = session.NewSession(&aws.Config{
		Region: aws.String(rs.region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	rs.s3 = s3.New(rs.sess)
	err = rs.s3.ListObjectsPages(
		&s3.ListObjectsInput{Bucket: aws.String(rs.bucket), Prefix: aws.String(rs.prefix)},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			for _, obj := range page.Contents {
				if strings.HasSuffix(*obj.Key, ".json") {
					rs.keys = append(rs.keys, *obj.Key)
				}
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "listing objects")
	}
	return rs, nil
}

// NumObjects returns how many objects the source will hand out.
func (rs *RawSource) NumObjects() int { return len(rs.keys) }

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

// NextReader implements datalake.RawSource.
func (rs *RawSource) NextReader() (datalake.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.keys) {
		return nil, io.EOF
	}
	key := rs.keys[idx]

	result, err := rs.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", key)
	}
	return &objReader{name: key, body: result.Body}, nil
}

// Sink publishes locally staged Parquet tables to a bucket. Tables are
// written to local disk first because Parquet files can't be streamed
// out before their footer is known.
type Sink struct {
	bucket string
	region string

	s3       *s3.S3
	uploader *s3manager.Uploader
}

// NewSink gets a sink for the bucket.
func NewSink(region, bucket string) (*Sink, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	return &Sink{
		bucket:   bucket,
		region:   region,
		s3:       s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// DeletePrefix removes every object under prefix, clearing a table's
// previous output before the new files go up.
func (k *Sink) DeletePrefix(prefix string) error {
	var delErr error
	err := k.s3.ListObjectsPages(
		&s3.ListObjectsInput{Bucket: aws.String(k.bucket), Prefix: aws.String(prefix)},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			if len(page.Contents) == 0 {
				return true
			}
			ids := make([]*s3.ObjectIdentifier, len(page.Contents))
			for i, obj := range page.Contents {
				ids[i] = &s3.ObjectIdentifier{Key: obj.Key}
			}
			_, delErr = k.s3.DeleteObjects(&s3.DeleteObjectsInput{
				Bucket: aws.String(k.bucket),
				Delete: &s3.Delete{Objects: ids},
			})
			return delErr == nil
		})
	if err != nil {
		return errors.Wrap(err, "listing objects to delete")
	}
	return errors.Wrap(delErr, "deleting objects")
}

// UploadDir uploads every file under dir to prefix, preserving the
// relative paths (so partition directories survive the trip).
func (k *Sink) UploadDir(dir, prefix string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return errors.Wrap(err, "relativizing path")
		}
		f, err := os.Open(p)
		if err != nil {
			return errors.Wrapf(err, "opening %s", p)
		}
		defer f.Close()
		key := path.Join(prefix, filepath.ToSlash(rel))
		_, err = k.uploader.Upload(&s3manager.UploadInput{
			Bucket: aws.String(k.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		return errors.Wrapf(err, "uploading %s", key)
	})
}
