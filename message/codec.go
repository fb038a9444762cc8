package message

// Codec converts between wire bytes and messages.
type Codec interface {
	ContentType() string
	Decode(data []byte) (*Message, error)
	Encode(m *Message) ([]byte, error)
}
