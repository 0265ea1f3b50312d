package s3sig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const (
	v4Algorithm  = "AWS4-HMAC-SHA256"
	v4Terminator = "aws4_request"
)

// CanonicalRequestV4 builds the canonical request string: method,
// canonical URI, canonical query string, canonical headers, the
// signed-headers list, and the hex SHA-256 of the payload -- in that
// fixed order, newline-separated, exactly as the V4 spec prescribes.
func CanonicalRequestV4(method, uri, rawQuery string, headers http.Header, signedHeaders []string, payloadHashHex string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(canonicalURIV4(uri))
	b.WriteByte('\n')
	b.WriteString(canonicalQueryStringV4(rawQuery))
	b.WriteByte('\n')
	b.WriteString(canonicalHeadersV4(headers, signedHeaders))
	b.WriteByte('\n')
	b.WriteString(strings.Join(signedHeaders, ";"))
	b.WriteByte('\n')
	b.WriteString(payloadHashHex)
	return b.String()
}

func canonicalURIV4(uri string) string {
	if uri == "" {
		return "/"
	}
	return uri
}

// canonicalQueryStringV4 sorts query parameters by key, then by value,
// and URL-encodes each name/value with the V4 percent-encoding rules
// (space becomes %20, never '+').
func canonicalQueryStringV4(rawQuery string) string {
	values, _ := url.ParseQuery(rawQuery)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			parts = append(parts, v4Escape(k)+"="+v4Escape(v))
		}
	}
	return strings.Join(parts, "&")
}

func v4Escape(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return escaped
}

// canonicalHeadersV4 renders "name:value\n" for each name in
// signedHeaders (must already be lower-case and sorted), trimming and
// collapsing internal whitespace in the value as the spec requires.
func canonicalHeadersV4(headers http.Header, signedHeaders []string) string {
	var b strings.Builder
	for _, name := range signedHeaders {
		values := headers.Values(name)
		joined := strings.Join(values, ",")
		joined = strings.Join(strings.Fields(joined), " ")
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(joined))
		b.WriteByte('\n')
	}
	return b.String()
}

// StringToSignV4 builds the string that is HMAC-signed: the algorithm
// name, request timestamp, credential scope, and the hex SHA-256 of
// the canonical request.
func StringToSignV4(amzDate, credentialScope, canonicalRequestHex string) string {
	return strings.Join([]string{v4Algorithm, amzDate, credentialScope, canonicalRequestHex}, "\n")
}

// CredentialScope renders "date/region/service/aws4_request".
func CredentialScope(dateStamp, region, service string) string {
	return strings.Join([]string{dateStamp, region, service, v4Terminator}, "/")
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SigningKeyV4 derives the per-request signing key via the documented
// four-step chain: k_date -> k_region -> k_service -> k_signing.
func SigningKeyV4(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte(v4Terminator))
	return kSigning
}

// SignV4 returns the lower-case hex HMAC-SHA256 signature of
// stringToSign under the derived signing key.
func SignV4(signingKey []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// HashPayloadV4 returns the lower-case hex SHA-256 of body, the value
// used both as the canonical request's payload hash and as the
// x-amz-content-sha256 header.
func HashPayloadV4(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// AuthorizationHeaderV4 renders the full "Authorization:" header value.
func AuthorizationHeaderV4(accessKey, credentialScope string, signedHeaders []string, signature string) string {
	return v4Algorithm +
		" Credential=" + accessKey + "/" + credentialScope +
		", SignedHeaders=" + strings.Join(signedHeaders, ";") +
		", Signature=" + signature
}
