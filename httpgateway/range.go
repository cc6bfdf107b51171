// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"strconv"
	"strings"

	"github.com/relayfs/relayfs/vfs"
)

// parseRangeHeader parses an HTTP Range header of the form
// "bytes=S-E", "bytes=S-" or "bytes=-N" (spec §4.6). It returns nil if
// rangeHeader is empty or not a single byte range this gateway
// understands — multi-range requests are left to the VFS layer to
// reject, since the spec names only single-range parsing.
func parseRangeHeader(rangeHeader, ifRange string) *vfs.RangeRequest {
	if rangeHeader == "" {
		return nil
	}
	spec, ok := strings.CutPrefix(rangeHeader, "bytes=")
	if !ok {
		return nil
	}
	if strings.Contains(spec, ",") {
		return nil
	}

	start, end, ok := strings.Cut(spec, "-")
	if !ok {
		return nil
	}

	req := &vfs.RangeRequest{Etag: ifRange}

	if start == "" {
		// Suffix range: "-N" means the last N bytes.
		n, err := strconv.ParseInt(end, 10, 64)
		if err != nil {
			return nil
		}
		req.End = &n
		return req
	}

	startValue, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return nil
	}
	req.Start = &startValue

	if end != "" {
		endValue, err := strconv.ParseInt(end, 10, 64)
		if err != nil {
			return nil
		}
		req.End = &endValue
	}

	return req
}
