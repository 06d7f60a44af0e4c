package main

// soundEffect is one candidate recording for a key: a baseline volume
// (0-100) and the interned resource it plays. Immutable once inserted.
type soundEffect struct {
	volume   int
	resource int
}

// sfxMap is a five-level nested lookup table mapping
// id -> variant -> season -> indoors/outdoors -> time-of-day to an ordered
// bucket of sound effects. Fallback lookups probe each level with the
// requested value and then that level's default, committing to whichever
// subtree exists before descending. A miss deeper down does not backtrack
// into the other branch of an earlier level; this is deliberately not a
// cross-product search.
type sfxMap struct {
	effects map[string]map[string]map[sfxSeason]map[sfxInOrOut]map[sfxTimeOfDay][]soundEffect
}

func newSfxMap() *sfxMap {
	return &sfxMap{
		effects: make(map[string]map[string]map[sfxSeason]map[sfxInOrOut]map[sfxTimeOfDay][]soundEffect),
	}
}

func (m *sfxMap) clear() {
	m.effects = make(map[string]map[string]map[sfxSeason]map[sfxInOrOut]map[sfxTimeOfDay][]soundEffect)
}

// insert appends eff to the bucket for key, creating intermediate levels on
// demand. Insertion order within a bucket is preserved.
func (m *sfxMap) insert(key sfxKey, eff soundEffect) {
	variants, ok := m.effects[key.id]
	if !ok {
		variants = make(map[string]map[sfxSeason]map[sfxInOrOut]map[sfxTimeOfDay][]soundEffect)
		m.effects[key.id] = variants
	}
	seasons, ok := variants[key.variant]
	if !ok {
		seasons = make(map[sfxSeason]map[sfxInOrOut]map[sfxTimeOfDay][]soundEffect)
		variants[key.variant] = seasons
	}
	places, ok := seasons[key.season]
	if !ok {
		places = make(map[sfxInOrOut]map[sfxTimeOfDay][]soundEffect)
		seasons[key.season] = places
	}
	tods, ok := places[key.place]
	if !ok {
		tods = make(map[sfxTimeOfDay][]soundEffect)
		places[key.place] = tods
	}
	tods[key.tod] = append(tods[key.tod], eff)
}

// findExact returns the bucket for the exact tuple, or nil.
func (m *sfxMap) findExact(key sfxKey) []soundEffect {
	variants, ok := m.effects[key.id]
	if !ok {
		return nil
	}
	seasons, ok := variants[key.variant]
	if !ok {
		return nil
	}
	places, ok := seasons[key.season]
	if !ok {
		return nil
	}
	tods, ok := places[key.place]
	if !ok {
		return nil
	}
	return tods[key.tod]
}

// findBest performs the per-level fallback lookup. Defaults per level:
// "" for id, "default" for variant, none/either/any for the rest. Returns
// nil when any level exhausts both its value and its default.
func (m *sfxMap) findBest(key sfxKey) []soundEffect {
	variants, ok := m.effects[key.id]
	if !ok {
		if variants, ok = m.effects[""]; !ok {
			return nil
		}
	}
	seasons, ok := variants[key.variant]
	if !ok {
		if seasons, ok = variants["default"]; !ok {
			return nil
		}
	}
	places, ok := seasons[key.season]
	if !ok {
		if places, ok = seasons[seasonNone]; !ok {
			return nil
		}
	}
	tods, ok := places[key.place]
	if !ok {
		if tods, ok = places[placeEither]; !ok {
			return nil
		}
	}
	bucket, ok := tods[key.tod]
	if !ok {
		if bucket, ok = tods[todAny]; !ok {
			return nil
		}
	}
	return bucket
}
