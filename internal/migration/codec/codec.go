// Package codec implements the bidirectional mapping between native document
// value types and their tagged, JSON-safe snapshot representation.
package codec

import (
	"fmt"
	"time"

	"tenant-migrate/internal/migration/domain/model"
	"tenant-migrate/internal/shared/errors"
)

// Wire-format field names and type tags.
const (
	TypeKey      = "_type"
	ValueKey     = "_value"
	LatitudeKey  = "_latitude"
	LongitudeKey = "_longitude"
	PathKey      = "_path"

	TypeTimestamp = "timestamp"
	TypeGeoPoint  = "geopoint"
	TypeReference = "reference"
)

// TimestampLayout is the millisecond-precision UTC form timestamps take on
// the wire. Losing the tag would silently degrade a timestamp to a plain
// string, so Encode/Decode must agree on this exactly.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Encode converts a native document value tree into its tagged JSON-safe
// representation. Primitives pass through unchanged; composites recurse.
// An unsupported Go type is an explicit error, never a silent passthrough.
func Encode(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string, int, int32, int64, float32, float64:
		return v, nil
	case time.Time:
		return map[string]interface{}{
			TypeKey:  TypeTimestamp,
			ValueKey: v.UTC().Truncate(time.Millisecond).Format(TimestampLayout),
		}, nil
	case model.GeoPoint:
		return map[string]interface{}{
			TypeKey:      TypeGeoPoint,
			LatitudeKey:  v.Latitude,
			LongitudeKey: v.Longitude,
		}, nil
	case model.Reference:
		return map[string]interface{}{
			TypeKey: TypeReference,
			PathKey: string(v),
		}, nil
	case []interface{}:
		encoded := make([]interface{}, len(v))
		for i, item := range v {
			e, err := Encode(item)
			if err != nil {
				return nil, err
			}
			encoded[i] = e
		}
		return encoded, nil
	case map[string]interface{}:
		encoded := make(map[string]interface{}, len(v))
		for key, item := range v {
			e, err := Encode(item)
			if err != nil {
				return nil, err
			}
			encoded[key] = e
		}
		return encoded, nil
	default:
		return nil, errors.NewSerializationError(fmt.Sprintf("cannot encode value of type %T", value)).
			WithComponent("codec")
	}
}

// EncodeFields encodes every field of a document's data map.
func EncodeFields(data map[string]interface{}) (map[string]interface{}, error) {
	encoded, err := Encode(data)
	if err != nil {
		return nil, err
	}
	return encoded.(map[string]interface{}), nil
}

// Decode is the inverse of Encode, dispatched on the _type discriminator.
// An unrecognized _type value is not an error: the map passes through as an
// ordinary record, so older or foreign snapshots carrying unknown tags still
// decode (e.g. a dangling reference target tagged by a newer writer).
//
// Known ambiguity: an ordinary record holding a field literally named "_type"
// with one of the reserved values is indistinguishable from an encoded typed
// value, and decodes as the latter.
func Decode(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil, bool, string, float64, float32, int, int32, int64:
		return v, nil
	case time.Time, model.GeoPoint, model.Reference:
		// Already native: a store adapter may hand Decode values its own
		// driver decoded past the tagged form (e.g. a BSON date).
		return v, nil
	case []interface{}:
		decoded := make([]interface{}, len(v))
		for i, item := range v {
			d, err := Decode(item)
			if err != nil {
				return nil, err
			}
			decoded[i] = d
		}
		return decoded, nil
	case map[string]interface{}:
		if tag, ok := v[TypeKey].(string); ok {
			switch tag {
			case TypeTimestamp:
				return decodeTimestamp(v)
			case TypeGeoPoint:
				return decodeGeoPoint(v)
			case TypeReference:
				return decodeReference(v)
			}
			// Unknown tag: forward-compatible passthrough as a plain record.
		}
		decoded := make(map[string]interface{}, len(v))
		for key, item := range v {
			d, err := Decode(item)
			if err != nil {
				return nil, err
			}
			decoded[key] = d
		}
		return decoded, nil
	default:
		return nil, errors.NewSerializationError(fmt.Sprintf("cannot decode value of type %T", value)).
			WithComponent("codec")
	}
}

// DecodeFields decodes every field of an encoded document map.
func DecodeFields(data map[string]interface{}) (map[string]interface{}, error) {
	decoded, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return decoded.(map[string]interface{}), nil
}

func decodeTimestamp(v map[string]interface{}) (interface{}, error) {
	raw, ok := v[ValueKey].(string)
	if !ok {
		return nil, errors.NewSerializationError("timestamp value is missing or not a string").
			WithComponent("codec").WithDetail("record", v)
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return nil, errors.NewSerializationError("malformed timestamp value").
			WithComponent("codec").WithCause(err)
	}
	return t, nil
}

func decodeGeoPoint(v map[string]interface{}) (interface{}, error) {
	lat, okLat := toFloat(v[LatitudeKey])
	lng, okLng := toFloat(v[LongitudeKey])
	if !okLat || !okLng {
		return nil, errors.NewSerializationError("geopoint latitude/longitude missing or not numeric").
			WithComponent("codec").WithDetail("record", v)
	}
	return model.GeoPoint{Latitude: lat, Longitude: lng}, nil
}

func decodeReference(v map[string]interface{}) (interface{}, error) {
	path, ok := v[PathKey].(string)
	if !ok {
		return nil, errors.NewSerializationError("reference path is missing or not a string").
			WithComponent("codec").WithDetail("record", v)
	}
	return model.Reference(path), nil
}

// toFloat normalizes the numeric types a JSON or BSON decoder may produce.
func toFloat(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
