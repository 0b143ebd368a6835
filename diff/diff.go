// Package diff compares two documents word by word and classifies every
// block as equal, inserted, deleted or changed.
package diff

import (
	"github.com/documint/pdfcore/extractor"
)

// OpKind classifies one alignment operation.
type OpKind int

const (
	// OpEqual matches a block present in both documents.
	OpEqual OpKind = iota
	// OpDelete marks a block present only in the old document.
	OpDelete
	// OpInsert marks a block present only in the new document.
	OpInsert
	// OpChange pairs a deleted block with the inserted block that
	// replaced it.
	OpChange
)

func (k OpKind) String() string {
	switch k {
	case OpEqual:
		return "equal"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	case OpChange:
		return "change"
	}
	return "unknown"
}

// Op is one element of an alignment. Equal carries both sides, Delete
// only Old, Insert only New, Change both.
type Op struct {
	Kind OpKind
	Old  *extractor.TextBlock
	New  *extractor.TextBlock
}
