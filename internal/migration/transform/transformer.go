// Package transform locates and rewrites blob-reference URLs embedded
// anywhere inside a document value tree.
package transform

import (
	"regexp"

	"tenant-migrate/internal/migration/codec"
	"tenant-migrate/internal/migration/domain/model"
)

// Stats counts what a transform did to one value tree. FallbackRewrites are
// bucket-only substitutions for objects absent from the mapping; the
// resulting URLs keep their now-stale tokens, so a non-zero count must be
// surfaced, never silently swallowed.
type Stats struct {
	ExactRewrites    int
	FallbackRewrites int
}

// Add accumulates another transform's counts.
func (s *Stats) Add(other Stats) {
	s.ExactRewrites += other.ExactRewrites
	s.FallbackRewrites += other.FallbackRewrites
}

type substitution struct {
	pattern *regexp.Regexp
	replace string
}

// URLTransformer rewrites blob references in encoded document trees.
//
// For each string the stripped base form is looked up in the URL mapping; on
// a hit the whole value is replaced with the mapped destination URL, which
// carries the new token. On a miss, three ordered pattern substitutions swap
// only the bucket identifier, leaving any now-invalid token untouched.
type URLTransformer struct {
	mapping model.URLMapping
	subs    []substitution
}

// NewURLTransformer builds a transformer over a completed URL mapping. The
// fallback substitutions cover, in order: the scheme-qualified object
// reference, the HTTP-API object reference, and the bare HTTP reference.
func NewURLTransformer(mapping model.URLMapping, sourceBucket, destBucket string) *URLTransformer {
	src := regexp.QuoteMeta(sourceBucket)
	return &URLTransformer{
		mapping: mapping,
		subs: []substitution{
			{regexp.MustCompile(`gs://` + src + `/`), "gs://" + destBucket + "/"},
			{regexp.MustCompile(`/v0/b/` + src + `/o/`), "/v0/b/" + destBucket + "/o/"},
			{regexp.MustCompile(`^(https?://[^/]+)/` + src + `/`), "${1}/" + destBucket + "/"},
		},
	}
}

// TransformDocument rewrites every matching string field of an encoded
// document map and reports what it did.
func (t *URLTransformer) TransformDocument(data map[string]interface{}) (map[string]interface{}, Stats) {
	var stats Stats
	transformed := t.transform(data, &stats)
	return transformed.(map[string]interface{}), stats
}

// Transform rewrites a single encoded value tree.
func (t *URLTransformer) Transform(value interface{}) (interface{}, Stats) {
	var stats Stats
	return t.transform(value, &stats), stats
}

func (t *URLTransformer) transform(value interface{}, stats *Stats) interface{} {
	switch v := value.(type) {
	case string:
		return t.transformString(v, stats)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = t.transform(item, stats)
		}
		return out
	case map[string]interface{}:
		// Encoded typed values are opaque: a reference's path-like string
		// must never be mistaken for a URL.
		if isEncodedTypedValue(v) {
			return v
		}
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = t.transform(item, stats)
		}
		return out
	default:
		return v
	}
}

func (t *URLTransformer) transformString(s string, stats *Stats) string {
	base := StripQuery(s)
	if dst, ok := t.mapping.Lookup(base); ok {
		stats.ExactRewrites++
		return dst
	}
	if dst, ok := t.mapping.Lookup(s); ok {
		stats.ExactRewrites++
		return dst
	}

	for _, sub := range t.subs {
		if sub.pattern.MatchString(s) {
			stats.FallbackRewrites++
			return sub.pattern.ReplaceAllString(s, sub.replace)
		}
	}
	return s
}

func isEncodedTypedValue(v map[string]interface{}) bool {
	tag, ok := v[codec.TypeKey].(string)
	if !ok {
		return false
	}
	switch tag {
	case codec.TypeTimestamp, codec.TypeGeoPoint, codec.TypeReference:
		return true
	}
	return false
}
