package diff

// changeThreshold is the similarity a Delete/Insert pair must exceed
// (strictly) to collapse into a single Change.
const changeThreshold = 0.8

// MergeChanges rewrites runs of Delete ops followed by Inserts into
// Change ops where the texts are similar enough. The pass is greedy and
// single-lookback: each Insert is compared only against the first
// buffered Delete, never against the whole buffer. Keeping that rule is
// what makes output deterministic across implementations of the same
// comparison.
func MergeChanges(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	var pending []Op // buffered deletes

	flush := func() {
		out = append(out, pending...)
		pending = pending[:0]
	}

	for _, op := range ops {
		switch op.Kind {
		case OpDelete:
			pending = append(pending, op)
		case OpInsert:
			if len(pending) > 0 && Ratio(pending[0].Old.Text, op.New.Text) > changeThreshold {
				out = append(out, Op{Kind: OpChange, Old: pending[0].Old, New: op.New})
				pending = pending[1:]
				continue
			}
			flush()
			out = append(out, op)
		default:
			flush()
			out = append(out, op)
		}
	}
	flush()
	return out
}
