package chunk

import "io"

// External wraps an io.Reader supplied by the registry extension point for
// a chunk kind the beam core does not know how to read natively. Its
// length is unknown (-1) until the first Read drains the reader and
// records how many bytes it actually produced.
type External struct {
	r      io.Reader
	length int64
	done   bool
}

// NewExternal adopts r as a chunk of unknown length.
func NewExternal(r io.Reader) *External {
	return &External{r: r, length: -1}
}

func (c *External) Kind() Kind    { return KindExternal }
func (c *External) Length() int64 { return c.length }

func (c *External) Read(block bool) ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}
	buf, err := io.ReadAll(c.r)
	c.done = true
	c.length = int64(len(buf))
	if err != nil {
		return buf, err
	}
	return buf, nil
}
