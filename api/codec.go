package api

import (
	"go.dedis.ch/tdec"
	"golang.org/x/xerrors"
	"google.golang.org/protobuf/encoding/protowire"
)

// fieldFn is called for each field of a message. It returns the number of
// bytes consumed, or zero when the field is unknown.
type fieldFn func(num protowire.Number, typ protowire.Type, data []byte) (int, error)

// decode walks the fields of a protobuf message. Unknown fields are skipped.
func decode(data []byte, fn fieldFn) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return xerrors.Errorf("malformed tag (%v): %w",
				protowire.ParseError(n), tdec.ErrInvalidEncoding)
		}

		data = data[n:]

		n, err := fn(num, typ, data)
		if err != nil {
			return xerrors.Errorf("field %d: %w", num, err)
		}

		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return xerrors.Errorf("field %d (%v): %w",
					num, protowire.ParseError(n), tdec.ErrInvalidEncoding)
			}
		}

		data = data[n:]
	}

	return nil
}

func consumeBytes(typ protowire.Type, data []byte, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return 0, xerrors.Errorf("wire type %d instead of bytes: %w", typ, tdec.ErrInvalidEncoding)
	}

	value, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return 0, xerrors.Errorf("%v: %w", protowire.ParseError(n), tdec.ErrInvalidEncoding)
	}

	*dst = append([]byte{}, value...)

	return n, nil
}

func consumeRepeated(typ protowire.Type, data []byte, dst *[][]byte) (int, error) {
	var value []byte

	n, err := consumeBytes(typ, data, &value)
	if err != nil {
		return 0, err
	}

	*dst = append(*dst, value)

	return n, nil
}

func consumeVarint(typ protowire.Type, data []byte, dst *uint64) (int, error) {
	if typ != protowire.VarintType {
		return 0, xerrors.Errorf("wire type %d instead of varint: %w", typ, tdec.ErrInvalidEncoding)
	}

	value, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, xerrors.Errorf("%v: %w", protowire.ParseError(n), tdec.ErrInvalidEncoding)
	}

	*dst = value

	return n, nil
}

func appendBytes(b []byte, num protowire.Number, value []byte) []byte {
	if len(value) == 0 {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, value)
}

func appendRepeated(b []byte, num protowire.Number, values [][]byte) []byte {
	for _, value := range values {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, value)
	}

	return b
}

func appendVarint(b []byte, num protowire.Number, value uint64) []byte {
	if value == 0 {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, value)
}
