// Package digest computes the MD5 checksums used to verify an upload.
//
// Local files are hashed in 1 MiB blocks. Remote bodies are hashed in 4 KiB
// blocks with a byte budget so a misbehaving card cannot stream forever.
//
// # Usage
//
//	local, err := digest.File("/tmp/part.x3g")
//	remote, err := digest.Reader(resp.Body, digest.DefaultMaxBytes)
//	ok := local == remote
package digest
