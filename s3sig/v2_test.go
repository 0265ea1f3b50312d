package s3sig

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSignV2KnownAnswer reproduces the GET object example from AWS's
// own "Authenticating Requests (AWS Signature Version 2)"
// documentation: secret key, headers and expected signature are all
// taken verbatim from that worked example.
func TestSignV2KnownAnswer(t *testing.T) {
	headers := http.Header{}
	headers.Set("Date", "Tue, 27 Mar 2007 19:36:42 +0000")

	canonical := CanonicalStringV2("GET", headers, "johnsmith", "/photos/puppy.jpg", "")
	require.Equal(t, "GET\n\n\nTue, 27 Mar 2007 19:36:42 +0000\n/johnsmith/photos/puppy.jpg", canonical)

	sig := SignV2("uV3F3YluFJax1cknvbcGwgjvx4QpvB+leU8dUj2o", canonical)
	require.Equal(t, "xXjDGYUmKxnwqr5KXNPGldn5LbA=", sig)
}

func TestCanonicalAmzHeadersV2SortedAndMerged(t *testing.T) {
	headers := http.Header{}
	headers.Add("X-Amz-Meta-ZZZ", "z")
	headers.Add("X-Amz-Meta-Aaa", "a1")
	headers.Add("X-Amz-Meta-Aaa", "a2")
	headers.Set("Content-Type", "text/plain")

	got := canonicalAmzHeadersV2(headers)
	require.Equal(t, "x-amz-meta-aaa:a1,a2\nx-amz-meta-zzz:z\n", got)
}

func TestCanonicalResourceV2Subresource(t *testing.T) {
	got := canonicalResourceV2("johnsmith", "/", "acl")
	require.Equal(t, "/johnsmith/?acl", got)
}

func TestVerifyV2RoundTrip(t *testing.T) {
	headers := http.Header{}
	headers.Set("Date", "Tue, 27 Mar 2007 19:36:42 +0000")
	secret := "uxpLGAxrqLM+aL1zf4XzoRR7kaaI8eoBzlYRzVHM"

	sig := SignV2(secret, CanonicalStringV2("GET", headers, "johnsmith", "/photos/puppy.jpg", ""))
	require.True(t, VerifyV2(secret, "GET", headers, "johnsmith", "/photos/puppy.jpg", "", sig))
	require.False(t, VerifyV2(secret, "GET", headers, "johnsmith", "/photos/other.jpg", "", sig))
}
