package k720

// Checksum computes the block check character (BCC) of a frame: the XOR
// of every byte. For outgoing and incoming frames this covers STX through
// ETX inclusive.
//
// The fold is associative, so Checksum(a) ^ Checksum(b) == Checksum(append(a, b...)).
func Checksum(data []byte) byte {
	var bcc byte
	for _, b := range data {
		bcc ^= b
	}
	return bcc
}
