package client

// Blob is the host form of a bytes value.
type Blob []byte

// Bytes returns a copy of the blob's contents.
func (b Blob) Bytes() []byte {
	return append([]byte{}, b...)
}

func newBlob(b []byte) any {
	return Blob(append([]byte{}, b...))
}
