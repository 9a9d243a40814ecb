package irc

import "bytes"

// Framer reassembles arbitrary reads into complete lines. Carriage returns
// are dropped, lines split on line feed, and an unterminated tail is carried
// over to the next Feed call.
type Framer struct {
	carry []byte
}

// Feed appends p and returns every line completed by it, in order.
func (f *Framer) Feed(p []byte) []string {
	if len(p) == 0 {
		return nil
	}
	for _, b := range p {
		if b == '\r' {
			continue
		}
		f.carry = append(f.carry, b)
	}

	var lines []string
	for {
		i := bytes.IndexByte(f.carry, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(f.carry[:i]))
		f.carry = f.carry[i+1:]
	}
	if len(f.carry) == 0 {
		f.carry = nil
	}
	return lines
}

// Pending returns the bytes held back waiting for a line feed.
func (f *Framer) Pending() string { return string(f.carry) }

// Reset drops any carried fragment.
func (f *Framer) Reset() { f.carry = nil }
