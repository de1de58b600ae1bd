// Package storage is the object store behind uploaded and generated
// artifacts.
//
// Backends register themselves from their packages; import the ones the
// binary needs:
//
//	import (
//	    _ "github.com/kbukum/canvasflow/storage/local"
//	    _ "github.com/kbukum/canvasflow/storage/s3"
//	)
//
//	storage:
//	  enabled: true
//	  provider: s3
//	  bucket: canvasflow-artifacts
//	  region: eu-west-1
package storage
