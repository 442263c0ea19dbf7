// Package media enumerates the files used for automatic replies.
//
// A Source is listed at call time, so the set reflects the directory or
// bucket contents when a reply is triggered. LocalSource reads a directory
// through github.com/spf13/afero; S3Source lists objects under a bucket
// prefix using the AWS SDK v2.
package media
