package transform

import (
	"net/url"
	"strings"
)

// URL grammar for blob references. Three spellings of the same object occur
// in the wild: the scheme-qualified form, the HTTP-API object form, and a
// bare HTTP form. Mapping keys and rewrite patterns are derived from these.

// SchemeURL returns the scheme-qualified object reference, e.g.
// "gs://bucket/gallery/a.png".
func SchemeURL(bucket, key string) string {
	return "gs://" + bucket + "/" + key
}

// ObjectBaseURL returns the HTTP-API object reference without any query
// string, e.g. "https://host/v0/b/bucket/o/gallery%2Fa.png". The object key
// is escaped as a single path segment.
func ObjectBaseURL(baseURL, bucket, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/v0/b/" + bucket + "/o/" + url.PathEscape(key)
}

// MediaURL returns the public download URL for an object carrying the given
// access token.
func MediaURL(baseURL, bucket, key, token string) string {
	return ObjectBaseURL(baseURL, bucket, key) + "?alt=media&token=" + token
}

// StripQuery returns the base form of a URL: everything before the first '?'.
func StripQuery(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}
