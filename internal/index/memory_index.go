package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// InvertedIndex maps normalized terms to the set of documents containing them.
// Postings are roaring bitmaps over dense document ordinals; the docTable
// translates ordinals back to document ids.
//
// The index is append-only and not safe for concurrent mutation. Readers may
// share it freely once building has finished.
type InvertedIndex struct {
	postings map[string]*roaring.Bitmap
	docs     docTable
}

// NewInvertedIndex returns an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]*roaring.Bitmap),
		docs:     newDocTable(),
	}
}

// Add records that docID contains term, creating the term bucket when absent.
func (idx *InvertedIndex) Add(term, docID string) {
	if term == "" || docID == "" {
		return
	}
	bm, ok := idx.postings[term]
	if !ok {
		bm = roaring.NewBitmap()
		idx.postings[term] = bm
	}
	bm.Add(idx.docs.ordinal(docID))
}

// Lookup returns the sorted document ids indexed under term, or nil if the term is unknown.
func (idx *InvertedIndex) Lookup(term string) []string {
	bm, ok := idx.postings[term]
	if !ok {
		return nil
	}
	return idx.docs.resolve(bm)
}

// Terms returns every indexed term in lexical order.
func (idx *InvertedIndex) Terms() []string {
	terms := make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// TermCount reports the number of distinct terms.
func (idx *InvertedIndex) TermCount() int {
	return len(idx.postings)
}

// DocCount reports the number of distinct document ids that own at least one posting.
func (idx *InvertedIndex) DocCount() int {
	all := roaring.NewBitmap()
	for _, bm := range idx.postings {
		all.Or(bm)
	}
	return int(all.GetCardinality())
}

// postingsFor returns the stored bitmap for term. Callers must not mutate it.
func (idx *InvertedIndex) postingsFor(term string) *roaring.Bitmap {
	if bm, ok := idx.postings[term]; ok {
		return bm
	}
	return roaring.NewBitmap()
}

// merge folds every posting of other into idx.
func (idx *InvertedIndex) merge(other *InvertedIndex) {
	for term, bm := range other.postings {
		it := bm.Iterator()
		for it.HasNext() {
			idx.Add(term, other.docs.id(it.Next()))
		}
	}
}

type docTable struct {
	ordinals map[string]uint32
	ids      []string
}

func newDocTable() docTable {
	return docTable{ordinals: make(map[string]uint32)}
}

func (t *docTable) ordinal(docID string) uint32 {
	if ord, ok := t.ordinals[docID]; ok {
		return ord
	}
	ord := uint32(len(t.ids))
	t.ordinals[docID] = ord
	t.ids = append(t.ids, docID)
	return ord
}

func (t *docTable) id(ord uint32) string {
	return t.ids[ord]
}

func (t *docTable) resolve(bm *roaring.Bitmap) []string {
	ids := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, t.ids[it.Next()])
	}
	sort.Strings(ids)
	return ids
}
