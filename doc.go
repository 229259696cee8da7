// Package datalake contains the core types for an ETL job which reads the
// Sparkify raw JSON datasets (song metadata and play event logs) and writes
// them back out as a set of partitioned Parquet tables forming a star schema.
//
// The job is built from a few small pieces. Sources (file, aws/s3, kafka)
// produce raw JSON records one at a time. The record types in this package
// decode those into song and event structs, and the table row types carry the
// denormalized output columns along with their Parquet schemas and partition
// layouts. The etl package wires the pieces together and the parquet package
// does the writing.
package datalake
