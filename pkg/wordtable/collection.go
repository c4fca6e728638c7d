package wordtable

import "github.com/japaniel/wordbook/pkg/vocab"

// Collection is the list a page displays. Only the response to the most
// recent refresh is applied, so an older list arriving late cannot
// overwrite a newer one.
type Collection struct {
	records []vocab.Record
	token   uint64
	loading bool
	err     error
	loaded  bool
}

// BeginRefresh marks a fetch as in flight and returns its token.
func (c *Collection) BeginRefresh() uint64 {
	c.token++
	c.loading = true
	return c.token
}

// Apply stores the result of the fetch started with token. On error the
// previous records stay in place. It reports whether the result was used.
func (c *Collection) Apply(token uint64, recs []vocab.Record, err error) bool {
	if token != c.token {
		return false
	}
	c.loading = false
	c.err = err
	if err != nil {
		return true
	}
	c.records = make([]vocab.Record, len(recs))
	for i, r := range recs {
		r = r.Clone()
		r.Normalize()
		c.records[i] = r
	}
	c.loaded = true
	return true
}

func (c *Collection) Len() int      { return len(c.records) }
func (c *Collection) Loading() bool { return c.loading }
func (c *Collection) Loaded() bool  { return c.loaded }
func (c *Collection) Err() error    { return c.err }

// At returns a copy of record i.
func (c *Collection) At(i int) (vocab.Record, bool) {
	if i < 0 || i >= len(c.records) {
		return vocab.Record{}, false
	}
	return c.records[i].Clone(), true
}

// Records returns copies of every record.
func (c *Collection) Records() []vocab.Record {
	out := make([]vocab.Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}

// Index returns the position of the record with key, or -1.
func (c *Collection) Index(key string) int {
	for i, r := range c.records {
		if r.Key() == key {
			return i
		}
	}
	return -1
}
