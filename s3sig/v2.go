// Package s3sig implements the two S3 request-signing schemes clients
// use against an object-storage gateway: the header-style V2 scheme
// (HMAC-SHA1 over a fixed canonical string) and V4 (a four-step
// HMAC-SHA256 key-derivation chain). There is no third-party signing
// library anywhere in the retrieved example repositories for this
// specific concern, and the wire formats are fixed by the S3 API
// itself rather than by any library's conventions, so this package is
// built directly on stdlib crypto/hmac, crypto/sha1 and crypto/sha256.
package s3sig

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// signedSubresources is the whitelist of query parameters that
// participate in the V2 canonical string when present, in the fixed
// order AWS's documented algorithm prescribes. Any other query
// parameter is excluded from signing.
var signedSubresources = []string{
	"acl", "lifecycle", "location", "logging", "notification",
	"partNumber", "policy", "requestPayment", "torrent",
	"uploadId", "uploads", "versionId", "versioning", "versions",
	"website",
}

// CanonicalStringV2 builds the string that V2 HMAC-signs: the
// fixed-order header block, followed by the canonicalized resource
// (bucket/key path plus any whitelisted, alphabetically sorted
// subresources).
func CanonicalStringV2(method string, headers http.Header, bucket, key, rawQuery string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(headers.Get("Content-MD5"))
	b.WriteByte('\n')
	b.WriteString(headers.Get("Content-Type"))
	b.WriteByte('\n')

	date := headers.Get("Date")
	if headers.Get("X-Amz-Date") != "" {
		date = ""
	}
	b.WriteString(date)
	b.WriteByte('\n')

	b.WriteString(canonicalAmzHeadersV2(headers))
	b.WriteString(canonicalResourceV2(bucket, key, rawQuery))

	return b.String()
}

// canonicalAmzHeadersV2 renders every x-amz-* header, lower-cased,
// merged by name (comma-joined), sorted, one "name:value\n" line each.
func canonicalAmzHeadersV2(headers http.Header) string {
	amz := make(map[string][]string)
	for name, values := range headers {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "x-amz-") {
			continue
		}
		amz[lower] = append(amz[lower], values...)
	}

	names := make([]string, 0, len(amz))
	for name := range amz {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(amz[name], ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// canonicalResourceV2 renders "/bucket/key" followed by, if any are
// present, '?' and every whitelisted subresource found in the query
// ("name" or "name=value"), sorted and joined by '&'.
func canonicalResourceV2(bucket, key, rawQuery string) string {
	var b strings.Builder
	if bucket != "" {
		b.WriteByte('/')
		b.WriteString(bucket)
	}
	b.WriteByte('/')
	b.WriteString(strings.TrimPrefix(key, "/"))

	values, _ := url.ParseQuery(rawQuery)
	var matched []string
	for _, name := range signedSubresources {
		if vs, ok := values[name]; ok {
			if len(vs) > 0 && vs[0] != "" {
				matched = append(matched, name+"="+vs[0])
			} else {
				matched = append(matched, name)
			}
		}
	}
	sort.Strings(matched)
	if len(matched) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(matched, "&"))
	}
	return b.String()
}

// SignV2 returns the base64-encoded HMAC-SHA1 signature of
// canonicalString under secretKey.
func SignV2(secretKey, canonicalString string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(canonicalString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// AuthorizationHeaderV2 renders the "Authorization: AWS ..." header
// value for accessKey/signature.
func AuthorizationHeaderV2(accessKey, signature string) string {
	return "AWS " + accessKey + ":" + signature
}

// VerifyV2 reports whether signature matches what SignV2 would compute
// for this request under secretKey. Comparison is constant-time.
func VerifyV2(secretKey string, method string, headers http.Header, bucket, key, rawQuery, signature string) bool {
	want := SignV2(secretKey, CanonicalStringV2(method, headers, bucket, key, rawQuery))
	return hmac.Equal([]byte(want), []byte(signature))
}
