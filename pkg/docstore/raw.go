package docstore

import (
	"bytes"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// This file holds the BSON helpers shared by the embedded drivers (memory,
// badger, sql). They operate on bson.Raw documents so a driver only has to
// store opaque byte slices and delegate matching, comparison and ordering
// here.

// MarshalDoc encodes a document into its raw BSON representation.
func MarshalDoc(doc any) (bson.Raw, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return bson.Raw(data), nil
}

// LookupValue returns the raw value of a top-level field, reporting whether
// the field exists.
func LookupValue(raw bson.Raw, key string) (bson.RawValue, bool) {
	val, err := raw.LookupErr(key)
	if err != nil {
		return bson.RawValue{}, false
	}
	return val, true
}

// Match reports whether a raw document satisfies every equality condition in
// filter. A document missing a filtered field does not match.
func Match(raw bson.Raw, filter Filter) (bool, error) {
	for key, want := range filter {
		got, ok := LookupValue(raw, key)
		if !ok {
			return false, nil
		}

		wantType, wantData, err := bson.MarshalValue(want)
		if err != nil {
			return false, fmt.Errorf("marshal filter value for %q: %w", key, err)
		}
		wantVal := bson.RawValue{Type: wantType, Value: wantData}

		if CompareValues(got, wantVal) != 0 {
			return false, nil
		}
	}
	return true, nil
}

// CompareValues orders two raw BSON values, returning -1, 0 or 1.
// Numeric types compare by value regardless of width (int32(5) equals
// int64(5) equals double(5.0)). Other types compare only within their own
// type; across unrelated types the ordering falls back to the BSON type byte
// so sorting stays deterministic.
func CompareValues(a, b bson.RawValue) int {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	if a.Type != b.Type {
		if a.Type < b.Type {
			return -1
		}
		return 1
	}

	switch a.Type {
	case bson.TypeString:
		as, _ := a.StringValueOK()
		bs, _ := b.StringValueOK()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	case bson.TypeObjectID:
		ao, _ := a.ObjectIDOK()
		bo, _ := b.ObjectIDOK()
		return bytes.Compare(ao[:], bo[:])
	case bson.TypeDateTime:
		ad, _ := a.DateTimeOK()
		bd, _ := b.DateTimeOK()
		switch {
		case ad < bd:
			return -1
		case ad > bd:
			return 1
		default:
			return 0
		}
	case bson.TypeBoolean:
		ab, _ := a.BooleanOK()
		bb, _ := b.BooleanOK()
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case bson.TypeBinary:
		_, ad, _ := a.BinaryOK()
		_, bd, _ := b.BinaryOK()
		return bytes.Compare(ad, bd)
	default:
		return bytes.Compare(a.Value, b.Value)
	}
}

// asFloat widens any BSON numeric value to float64.
func asFloat(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bson.TypeInt32:
		i, ok := v.Int32OK()
		return float64(i), ok
	case bson.TypeInt64:
		i, ok := v.Int64OK()
		return float64(i), ok
	case bson.TypeDouble:
		f, ok := v.DoubleOK()
		return f, ok
	default:
		return 0, false
	}
}

// SortRaw orders raw documents in place by the sort key. Documents missing
// the key sort first in ascending order. A nil sort is a no-op.
func SortRaw(docs []bson.Raw, s *Sort) {
	if s == nil || s.Key == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		av, aok := LookupValue(docs[i], s.Key)
		bv, bok := LookupValue(docs[j], s.Key)

		var cmp int
		switch {
		case !aok && !bok:
			cmp = 0
		case !aok:
			cmp = -1
		case !bok:
			cmp = 1
		default:
			cmp = CompareValues(av, bv)
		}

		if s.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// KeyString renders a raw value as a stable string usable as an index key.
// Numerics normalize to the same representation across widths so that an
// int32 and an int64 with equal value produce the same key.
func KeyString(v bson.RawValue) string {
	if f, ok := asFloat(v); ok {
		return fmt.Sprintf("n:%g", f)
	}
	return fmt.Sprintf("%02x:%x", byte(v.Type), v.Value)
}
