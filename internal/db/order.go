package db

import "database/sql"

// orderGap is the spacing between freshly allocated sibling order keys.
// Midpoint insertion halves the available gap each time, so a new gap of
// 1024 leaves ~50 bisections before hitting float64 precision limits.
const orderGap = 1024.0

// minOrderGap is the smallest gap that is still safe to bisect. Below it the
// sibling group is resequenced to evenly spaced keys instead.
const minOrderGap = 1e-6

// orderKeyBetween allocates an order key for a note placed between the given
// neighbors. Nil means no neighbor on that side.
func orderKeyBetween(before, after *float64) float64 {
	switch {
	case before != nil && after != nil:
		return (*before + *after) / 2
	case before != nil:
		return *before + orderGap
	case after != nil:
		return *after - orderGap
	default:
		return orderGap
	}
}

// bisectable reports whether the gap between two neighboring keys still has
// headroom for a midpoint insertion.
func bisectable(before, after float64) bool {
	return after-before > minOrderGap
}

// parentCond returns the WHERE fragment and arguments selecting the children
// of parentID, which may be nil for root-level notes. SQL "= NULL" never
// matches, hence the split.
func parentCond(parentID *int64) (string, []any) {
	if parentID == nil {
		return "parent_id IS NULL", nil
	}
	return "parent_id = ?", []any{*parentID}
}

// siblingIDs returns the non-deleted children of parentID in order-key order.
func siblingIDs(tx *sql.Tx, parentID *int64) ([]int64, error) {
	cond, args := parentCond(parentID)
	rows, err := tx.Query("SELECT id FROM notes WHERE "+cond+" AND is_deleted = 0 ORDER BY order_key ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// resequence rewrites the order keys of the non-deleted children of parentID
// to evenly spaced multiples of orderGap, preserving their current order.
// Sibling updated_at values are left alone: resequencing does not change any
// note's logical position.
func resequence(tx *sql.Tx, parentID *int64) error {
	ids, err := siblingIDs(tx, parentID)
	if err != nil {
		return err
	}
	return writeSequence(tx, ids)
}

// writeSequence assigns (index+1)*orderGap to each id in order.
func writeSequence(tx *sql.Tx, ids []int64) error {
	for i, id := range ids {
		key := float64(i+1) * orderGap
		if _, err := tx.Exec("UPDATE notes SET order_key = ? WHERE id = ?", key, id); err != nil {
			return err
		}
	}
	return nil
}
