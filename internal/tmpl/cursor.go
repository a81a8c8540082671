package tmpl

import "github.com/l0p7/tmplengine/internal/reqgraph"

// Cursor walks the pairs in an AttrList matching a single attribute
// reference's name/tag/instance selector, implementing spec.md §5's
// cursor_init/cursor_next pair-matching semantics.
type Cursor struct {
	list *reqgraph.AttrList
	name string
	tag  int // TagAny matches any tag; TagNone matches only untagged pairs.
	num  int // NumAny yields the first match; NumAll walks in order; a concrete index seeks to that match.

	pos      int // next index into list.Pairs to examine
	matched  int // count of matches already yielded (for Num indexing)
	seekDone bool
}

// CursorInit builds a cursor over list for the given name/tag. num selects
// which match(es) the cursor yields: NumAny yields only the first match;
// NumAll walks every match in list order; NumLast walks only the final match; a concrete index yields only
// the match at that zero-based position among matches; NumCount is handled
// by the caller via Count, not by iterating the cursor.
func CursorInit(list *reqgraph.AttrList, name string, tag, num int) *Cursor {
	return &Cursor{list: list, name: name, tag: tag, num: num}
}

func (c *Cursor) tagMatches(p reqgraph.Pair) bool {
	switch c.tag {
	case TagAny:
		return true
	case TagNone:
		return p.Tag == -1
	default:
		return p.Tag == c.tag
	}
}

// Next advances the cursor and returns the next matching pair, or
// ok == false once exhausted.
func (c *Cursor) Next() (pair reqgraph.Pair, ok bool) {
	if c.list == nil || c.seekDone {
		return reqgraph.Pair{}, false
	}

	switch c.num {
	case NumAny, NumAll:
		for c.pos < len(c.list.Pairs) {
			p := c.list.Pairs[c.pos]
			c.pos++
			if p.Name == c.name && c.tagMatches(p) {
				c.matched++
				if c.num == NumAny {
					c.seekDone = true
				}
				return p, true
			}
		}
		return reqgraph.Pair{}, false

	case NumLast:
		var last reqgraph.Pair
		found := false
		for c.pos < len(c.list.Pairs) {
			p := c.list.Pairs[c.pos]
			c.pos++
			if p.Name == c.name && c.tagMatches(p) {
				last = p
				found = true
			}
		}
		c.seekDone = true
		if !found {
			return reqgraph.Pair{}, false
		}
		return last, true

	default:
		if c.num < 0 {
			return reqgraph.Pair{}, false
		}
		for c.pos < len(c.list.Pairs) {
			p := c.list.Pairs[c.pos]
			c.pos++
			if p.Name == c.name && c.tagMatches(p) {
				if c.matched == c.num {
					c.seekDone = true
					return p, true
				}
				c.matched++
			}
		}
		c.seekDone = true
		return reqgraph.Pair{}, false
	}
}

// Count returns the number of pairs in list matching name/tag, implementing
// the NumCount instance selector (spec.md §5).
func Count(list *reqgraph.AttrList, name string, tag int) int {
	c := CursorInit(list, name, tag, NumAll)
	n := 0
	for {
		_, ok := c.Next()
		if !ok {
			break
		}
		n++
	}
	return n
}
