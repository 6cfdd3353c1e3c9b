// Package writers turns records, results, batches and pools into serialized
// outputs.
//
// Streams (one record per improvement or batch sample) go through
// StartRecordWriter; whole documents through WriteDocument. JSON, JSONL and
// YAML always go through pkg/api (v1) for a stable wire format.
package writers
