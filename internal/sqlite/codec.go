// This file implements the text encodings of the database image held in
// the key/value slot.
package sqlite

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ImageCodec converts the binary database image to and from the text
// stored in a slot.
type ImageCodec interface {
	Encode(image []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ByteArrayCodec stores the image as a JSON array of byte values,
// e.g. [83,81,76,105].
type ByteArrayCodec struct{}

// Encode writes the array directly; encoding/json would emit base64 for
// a byte slice.
func (ByteArrayCodec) Encode(image []byte) ([]byte, error) {
	buf := make([]byte, 0, len(image)*4+2)
	buf = append(buf, '[')
	for i, b := range image {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}
	buf = append(buf, ']')
	return buf, nil
}

// Decode parses the array, rejecting values outside 0..255.
func (ByteArrayCodec) Decode(data []byte) ([]byte, error) {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	image := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte %d out of range: %d", types.ErrInvalidImage, i, v)
		}
		image[i] = byte(v)
	}
	return image, nil
}

// Base64Codec stores the image as standard base64 text.
type Base64Codec struct{}

// Encode returns the base64 text of the image.
func (Base64Codec) Encode(image []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(image)))
	base64.StdEncoding.Encode(out, image)
	return out, nil
}

// Decode reverses Encode.
func (Base64Codec) Decode(data []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(out, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidImage, err)
	}
	return out[:n], nil
}

// CodecFor returns the codec for a Config.ImageEncoding value.
func CodecFor(encoding string) (ImageCodec, error) {
	switch encoding {
	case "", types.EncodingBytes:
		return ByteArrayCodec{}, nil
	case types.EncodingBase64:
		return Base64Codec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownEncoding, encoding)
	}
}
