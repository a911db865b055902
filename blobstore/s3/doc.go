// Package s3 implements blobstore.Store on Amazon S3.
//
// Puts go through the SDK upload manager, which switches to multipart
// uploads for large snapshots. The optional CommitStore pairs S3 with
// DynamoDB conditional writes so pointer blobs (snapshot LATEST
// markers) commit atomically even with concurrent writers.
package s3
