// Package artifact persists alignment results to a blobstore.BlobStore.
//
// A bundle named NAME is stored as independent blobs so later requests can
// load only what they need:
//
//	NAME/manifest.json  bundle metadata, written last
//	NAME/common.json    shared vocabulary in row order
//	NAME/shift.json     per-word shift values
//	NAME/v1.mat         aligned source vectors
//	NAME/v2.mat         target vectors
//	NAME/q.mat          rotation
//	NAME/dists.mat      cross distance matrix
//
// Matrices are gonum binary encodings wrapped in a small header and
// compressed with zstd (default) or lz4. The CURRENT blob names the bundle
// most recently committed; on s3.DDBCommitStore it is backed by DynamoDB.
package artifact
