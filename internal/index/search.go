package index

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// Operator describes how a query term combines with the accumulated result.
type Operator int

const (
	// OpFirst seeds the accumulator with the term's postings.
	OpFirst Operator = iota
	// OpOr unions the term's postings into the accumulator.
	OpOr
	// OpAnd intersects the accumulator with the term's postings.
	OpAnd
	// OpAndNot removes the term's postings from the accumulator.
	OpAndNot
)

func (op Operator) String() string {
	switch op {
	case OpFirst:
		return "FIRST"
	case OpOr:
		return "OR"
	case OpAnd:
		return "AND"
	case OpAndNot:
		return "AND_NOT"
	default:
		return "UNKNOWN"
	}
}

// QueryTerm is a normalized query term paired with its operator.
type QueryTerm struct {
	Op   Operator
	Term string
}

// ResultSet is the set of document ids matched by a query.
type ResultSet struct {
	ids []string
}

// Len reports the number of matched documents.
func (r ResultSet) Len() int {
	return len(r.ids)
}

// IDs returns the matched document ids in lexical order.
func (r ResultSet) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Contains reports whether docID is part of the result.
func (r ResultSet) Contains(docID string) bool {
	i := sort.SearchStrings(r.ids, docID)
	return i < len(r.ids) && r.ids[i] == docID
}

// ParseQuery splits raw on whitespace and derives one QueryTerm per token that
// cleans to a non-empty term. The operator comes from the token's first byte
// before cleaning: '+' is AND, '-' is AND_NOT and anything else is OR. The
// first surviving term is always OpFirst regardless of its prefix.
func ParseQuery(raw string) []QueryTerm {
	var terms []QueryTerm
	for _, word := range strings.FieldsFunc(raw, isSpaceRune) {
		term := CleanToken(word)
		if term == "" {
			continue
		}

		op := operatorFor(word[0])
		if len(terms) == 0 {
			op = OpFirst
		}
		terms = append(terms, QueryTerm{Op: op, Term: term})
	}
	return terms
}

// Evaluate folds the parsed terms over idx. Unknown terms contribute an empty set.
// idx is only read.
func Evaluate(idx *InvertedIndex, terms []QueryTerm) ResultSet {
	acc := roaring.NewBitmap()
	for _, qt := range terms {
		postings := idx.postingsFor(qt.Term)
		switch qt.Op {
		case OpFirst:
			acc = postings.Clone()
		case OpOr:
			acc = roaring.Or(acc, postings)
		case OpAnd:
			acc = roaring.And(acc, postings)
		case OpAndNot:
			acc = roaring.AndNot(acc, postings)
		}
	}
	return ResultSet{ids: idx.docs.resolve(acc)}
}

// FindQueryMatches parses query and evaluates it against idx.
func FindQueryMatches(idx *InvertedIndex, query string) ResultSet {
	return Evaluate(idx, ParseQuery(query))
}

func operatorFor(prefix byte) Operator {
	switch prefix {
	case '+':
		return OpAnd
	case '-':
		return OpAndNot
	default:
		return OpOr
	}
}
