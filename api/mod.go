// Package api defines the messages exchanged between the node and its clients,
// together with their protobuf wire format. Group elements are carried as raw
// bytes and decoded by the handlers.
package api

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// ContentType is the media type of the messages.
const ContentType = "application/protobuf"

// Message is the common interface of the messages.
type Message interface {
	// Marshal returns the wire format of the message.
	Marshal() []byte

	// Unmarshal populates the message from its wire format.
	Unmarshal(data []byte) error
}

// GammaG2Request is a request for the partial decryption of an identity
// element.
//
// - implements api.Message
type GammaG2Request struct {
	GammaG2 []byte
}

// Marshal implements api.Message.
func (m *GammaG2Request) Marshal() []byte {
	return appendBytes(nil, 1, m.GammaG2)
}

// Unmarshal implements api.Message.
func (m *GammaG2Request) Unmarshal(data []byte) error {
	*m = GammaG2Request{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeBytes(typ, b, &m.GammaG2)
		}

		return 0, nil
	})
}

// VerifyPartRequest is a request to verify the partial decryption of a
// participant.
//
// - implements api.Message
type VerifyPartRequest struct {
	PK      []byte
	GammaG2 []byte
	PartDec []byte
}

// Marshal implements api.Message.
func (m *VerifyPartRequest) Marshal() []byte {
	b := appendBytes(nil, 1, m.PK)
	b = appendBytes(b, 2, m.GammaG2)

	return appendBytes(b, 3, m.PartDec)
}

// Unmarshal implements api.Message.
func (m *VerifyPartRequest) Unmarshal(data []byte) error {
	*m = VerifyPartRequest{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(typ, b, &m.PK)
		case 2:
			return consumeBytes(typ, b, &m.GammaG2)
		case 3:
			return consumeBytes(typ, b, &m.PartDec)
		default:
			return 0, nil
		}
	})
}

// PKRequest is a request for the public key share of a participant.
//
// - implements api.Message
type PKRequest struct {
	ID uint64
	N  uint64
}

// Marshal implements api.Message.
func (m *PKRequest) Marshal() []byte {
	b := appendVarint(nil, 1, m.ID)

	return appendVarint(b, 2, m.N)
}

// Unmarshal implements api.Message.
func (m *PKRequest) Unmarshal(data []byte) error {
	*m = PKRequest{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, &m.ID)
		case 2:
			return consumeVarint(typ, b, &m.N)
		default:
			return 0, nil
		}
	})
}

// DecryptParamsRequest is a request to decrypt a ciphertext with the partial
// decryptions of the participants. PKs and Parts are parallel lists.
//
// - implements api.Message
type DecryptParamsRequest struct {
	Enc   []byte
	PKs   [][]byte
	Parts [][]byte
	SA1   []byte
	SA2   []byte
	IV    []byte
	T     uint64
	N     uint64
}

// Marshal implements api.Message.
func (m *DecryptParamsRequest) Marshal() []byte {
	b := appendBytes(nil, 1, m.Enc)
	b = appendRepeated(b, 2, m.PKs)
	b = appendRepeated(b, 3, m.Parts)
	b = appendBytes(b, 4, m.SA1)
	b = appendBytes(b, 5, m.SA2)
	b = appendBytes(b, 6, m.IV)
	b = appendVarint(b, 7, m.T)

	return appendVarint(b, 8, m.N)
}

// Unmarshal implements api.Message.
func (m *DecryptParamsRequest) Unmarshal(data []byte) error {
	*m = DecryptParamsRequest{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(typ, b, &m.Enc)
		case 2:
			return consumeRepeated(typ, b, &m.PKs)
		case 3:
			return consumeRepeated(typ, b, &m.Parts)
		case 4:
			return consumeBytes(typ, b, &m.SA1)
		case 5:
			return consumeBytes(typ, b, &m.SA2)
		case 6:
			return consumeBytes(typ, b, &m.IV)
		case 7:
			return consumeVarint(typ, b, &m.T)
		case 8:
			return consumeVarint(typ, b, &m.N)
		default:
			return 0, nil
		}
	})
}

// EncryptRequest is a request to encrypt a message for the committee. The
// public keys are accepted for compatibility but the node always encrypts for
// the master key of its own committee.
//
// - implements api.Message
type EncryptRequest struct {
	Msg []byte
	PKs [][]byte
	T   uint64
	N   uint64
}

// Marshal implements api.Message.
func (m *EncryptRequest) Marshal() []byte {
	b := appendBytes(nil, 1, m.Msg)
	b = appendRepeated(b, 2, m.PKs)
	b = appendVarint(b, 3, m.T)

	return appendVarint(b, 4, m.N)
}

// Unmarshal implements api.Message.
func (m *EncryptRequest) Unmarshal(data []byte) error {
	*m = EncryptRequest{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(typ, b, &m.Msg)
		case 2:
			return consumeRepeated(typ, b, &m.PKs)
		case 3:
			return consumeVarint(typ, b, &m.T)
		case 4:
			return consumeVarint(typ, b, &m.N)
		default:
			return 0, nil
		}
	})
}

// EncryptResponse is the ciphertext of an encryption request. GammaG2 is the
// identity element of the ciphertext.
//
// - implements api.Message
type EncryptResponse struct {
	Enc     []byte
	SA1     []byte
	SA2     []byte
	IV      []byte
	GammaG2 []byte
}

// Marshal implements api.Message.
func (m *EncryptResponse) Marshal() []byte {
	b := appendBytes(nil, 1, m.Enc)
	b = appendBytes(b, 2, m.SA1)
	b = appendBytes(b, 3, m.SA2)
	b = appendBytes(b, 4, m.IV)

	return appendBytes(b, 5, m.GammaG2)
}

// Unmarshal implements api.Message.
func (m *EncryptResponse) Unmarshal(data []byte) error {
	*m = EncryptResponse{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBytes(typ, b, &m.Enc)
		case 2:
			return consumeBytes(typ, b, &m.SA1)
		case 3:
			return consumeBytes(typ, b, &m.SA2)
		case 4:
			return consumeBytes(typ, b, &m.IV)
		case 5:
			return consumeBytes(typ, b, &m.GammaG2)
		default:
			return 0, nil
		}
	})
}

// Response is the generic response of the node.
//
// - implements api.Message
type Response struct {
	Result []byte
}

// Marshal implements api.Message.
func (m *Response) Marshal() []byte {
	return appendBytes(nil, 1, m.Result)
}

// Unmarshal implements api.Message.
func (m *Response) Unmarshal(data []byte) error {
	*m = Response{}

	return decode(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeBytes(typ, b, &m.Result)
		}

		return 0, nil
	})
}
