// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"encoding/binary"
	"encoding/hex"
	"os"

	"github.com/zeebo/blake3"
)

// etagDomainKey domain-separates localvfs's ETag hash from every other
// BLAKE3 keyed hash in the module (lib/artifact/hash.go's pattern: a
// fixed, ASCII-named, zero-padded 32-byte key per use).
var etagDomainKey = func() [32]byte {
	var key [32]byte
	copy(key[:], "relayfs.localvfs.etag")
	return key
}()

// synthesizeLocalEtag mirrors httpgateway's ETag synthesis so a VFS
// backed by localvfs can honor If-None-Match without reading through
// to the gateway layer (e.g. when served directly over RPC).
func synthesizeLocalEtag(path string, info os.FileInfo) string {
	hasher, err := blake3.NewKeyed(etagDomainKey[:])
	if err != nil {
		panic("localvfs: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(path))
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(info.Size()))
	hasher.Write(sizeBuf[:])
	mtime, err := info.ModTime().MarshalBinary()
	if err == nil {
		hasher.Write(mtime)
	}
	sum := hasher.Sum(nil)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
