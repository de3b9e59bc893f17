package value

// Merge combines target and source into a new tree:
//   - two objects merge key-wise and recursively; target keys keep their
//     position and keys only in source are appended,
//   - two arrays are concatenated and de-duplicated by Equal, keeping the
//     first occurrence,
//   - anything else (scalars, mismatched kinds) resolves to source.
//
// Neither input is modified.
func Merge(target, source Value) Value {
	switch {
	case target.kind == KindObject && source.kind == KindObject:
		out := target.Clone()
		for _, k := range source.keys {
			sf := source.fields[k]
			if tf, ok := out.fields[k]; ok {
				out.fields[k] = Merge(tf, sf)
				continue
			}
			out.Set(k, sf.Clone())
		}
		return out
	case target.kind == KindArray && source.kind == KindArray:
		out := Array()
		out.items = make([]Value, 0, len(target.items)+len(source.items))
		for _, item := range target.items {
			out.items = append(out.items, item.Clone())
		}
		for _, item := range source.items {
			out.items = append(out.items, item.Clone())
		}
		return Dedup(out)
	}
	return source.Clone()
}

// MergeAll folds values left to right starting from an empty object.
func MergeAll(values ...Value) Value {
	acc := Object()
	for _, v := range values {
		acc = Merge(acc, v)
	}
	return acc
}

// Dedup removes repeated elements from an array, keeping the first
// occurrence. Non-array values are returned unchanged.
func Dedup(v Value) Value {
	if v.kind != KindArray {
		return v
	}
	out := Array()
	for _, item := range v.items {
		seen := false
		for _, kept := range out.items {
			if Equal(kept, item) {
				seen = true
				break
			}
		}
		if !seen {
			out.items = append(out.items, item)
		}
	}
	return out
}
