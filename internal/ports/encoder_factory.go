package ports

// EncoderFactory is the port for looking up encoders by Format.
type EncoderFactory interface {
	// For returns an Encoder for the given Format, or an error if unsupported.
	For(f Format) (Encoder, error)
}
