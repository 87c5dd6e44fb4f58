package tagstash

import "github.com/RoaringBitmap/roaring/v2"

// tagIndex is an inverted index from tag to the set of entries carrying it,
// so bulk invalidation touches only the tagged entries instead of scanning
// the whole table.
//
// Keys are mapped to dense uint32 ids and tag membership is kept in Roaring
// Bitmaps; matching a tag list is a bitmap union. Untagged entries never
// enter the index.
type tagIndex struct {
	nextID uint32
	ids    map[string]uint32
	keys   map[uint32]string
	tags   map[string]*roaring.Bitmap
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		ids:  make(map[string]uint32),
		keys: make(map[uint32]string),
		tags: make(map[string]*roaring.Bitmap),
	}
}

// add registers key under each tag. A no-op for empty tag lists.
func (ti *tagIndex) add(key string, tags []string) {
	if len(tags) == 0 {
		return
	}

	id, ok := ti.ids[key]
	if !ok {
		id = ti.nextID
		ti.nextID++
		ti.ids[key] = id
		ti.keys[id] = key
	}

	for _, tag := range tags {
		bm, ok := ti.tags[tag]
		if !ok {
			bm = roaring.New()
			ti.tags[tag] = bm
		}
		bm.Add(id)
	}
}

// remove unregisters key from each of its tags, dropping emptied bitmaps.
func (ti *tagIndex) remove(key string, tags []string) {
	id, ok := ti.ids[key]
	if !ok {
		return
	}

	for _, tag := range tags {
		if bm, ok := ti.tags[tag]; ok {
			bm.Remove(id)
			if bm.IsEmpty() {
				delete(ti.tags, tag)
			}
		}
	}

	delete(ti.ids, key)
	delete(ti.keys, id)
}

// matching returns the keys whose tag set intersects tags.
func (ti *tagIndex) matching(tags []string) []string {
	bitmaps := make([]*roaring.Bitmap, 0, len(tags))
	for _, tag := range tags {
		if bm, ok := ti.tags[tag]; ok {
			bitmaps = append(bitmaps, bm)
		}
	}
	if len(bitmaps) == 0 {
		return nil
	}

	union := roaring.FastOr(bitmaps...)
	keys := make([]string, 0, union.GetCardinality())
	it := union.Iterator()
	for it.HasNext() {
		keys = append(keys, ti.keys[it.Next()])
	}
	return keys
}

// reset drops the whole index and restarts id assignment.
func (ti *tagIndex) reset() {
	ti.nextID = 0
	ti.ids = make(map[string]uint32)
	ti.keys = make(map[uint32]string)
	ti.tags = make(map[string]*roaring.Bitmap)
}
