package store

import "github.com/rpgo/lifedash/internal/domain"

// DeepMerge overlays override onto base. Objects present on both sides are
// merged recursively; every other value (arrays included) from override
// replaces base's wholesale. Keys only in base are kept. Inputs are not
// modified.
func DeepMerge(base, override domain.Record) domain.Record {
	return domain.Record(deepMerge(base, override, true))
}

// MergeNewer reconciles two copies of a record where newer wins even by
// omission: the result has exactly newer's keys at every level, and objects
// present on both sides are merged recursively. Merging a record with itself
// yields an equal record.
func MergeNewer(older, newer domain.Record) domain.Record {
	return domain.Record(deepMerge(older, newer, false))
}

func deepMerge(base, override map[string]any, keepBase bool) map[string]any {
	out := make(map[string]any, len(override))
	if keepBase {
		for k, v := range base {
			out[k] = domain.CloneValue(v)
		}
	}
	for k, ov := range override {
		bm, bok := domain.AsMap(base[k])
		om, ook := domain.AsMap(ov)
		if bok && ook {
			out[k] = deepMerge(bm, om, keepBase)
			continue
		}
		out[k] = domain.CloneValue(ov)
	}
	return out
}
