package collection

// Canonicalize scans every symbol once and rewrites the buffer in place from
// ASCII to compact codes. If no N occurs anywhere, the collection is reduced
// to the DNA4 alphabet; otherwise it stays DNA5. The buffer is replaced
// byte-for-byte, never resized.
//
// Returns true when the collection was reduced to DNA4.
func (c *Collection) Canonicalize() bool {
	canReduce := true
	for i, b := range c.data {
		switch b {
		case 'A':
			c.data[i] = SymA
		case 'C':
			c.data[i] = SymC
		case 'G':
			c.data[i] = SymG
		case 'T':
			c.data[i] = SymT
		default:
			c.data[i] = SymN
			canReduce = false
		}
	}

	if canReduce {
		c.alphabet = AlphabetDNA4
	} else {
		c.alphabet = AlphabetDNA5
	}
	return canReduce
}
