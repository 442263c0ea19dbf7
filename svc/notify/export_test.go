package notify

var (
	EncodeEnvelope = encodeEnvelope
	DecodeEnvelope = decodeEnvelope
)
