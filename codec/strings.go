package codec

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	tspice "github.com/rybosome/tspice-sub002"
	"github.com/rybosome/tspice-sub002/errors"
)

// MinStride is the smallest usable fixed-width string stride: one payload
// byte plus the NUL terminator. Strides of 0 or 1 can store no string at all.
const MinStride = 2

// TruncateUTF8 truncates s to at most max bytes without splitting a
// multi-byte codepoint. It walks backward from the byte limit over UTF-8
// continuation bytes; when the last complete codepoint's leading byte would
// extend past the limit, the whole codepoint is dropped rather than emitting
// a malformed partial sequence.
func TruncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// WriteCString encodes s as a NUL-terminated C string at ptr, using at most
// maxBytes bytes of storage. The payload is truncated UTF-8-safely to
// maxBytes-1; an empty string still receives its NUL byte.
func WriteCString(mem tspice.Memory, ptr, maxBytes uint32, s string) error {
	if maxBytes < MinStride {
		return errors.InvalidInput(errors.PhaseEncode, "string storage must be >= %d bytes, got %d", MinStride, maxBytes)
	}
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
	}
	payload := TruncateUTF8(s, int(maxBytes-1))
	buf := make([]byte, len(payload)+1)
	copy(buf, payload)
	if err := mem.Write(ptr, buf); err != nil {
		return errors.OutOfBounds(errors.PhaseEncode, ptr, uint32(len(buf)), err)
	}
	return nil
}

// EncodeFixedStrings writes strs as a fixed-width C string array at ptr with
// the given stride (bytes per entry). Each entry is UTF-8 encoded, truncated
// codepoint-safely if it would exceed stride-1 bytes, NUL-terminated and
// NUL-padded to the full stride.
func EncodeFixedStrings(mem tspice.Memory, ptr, stride uint32, strs []string) error {
	if stride < MinStride {
		return errors.InvalidInput(errors.PhaseEncode, "string stride must be >= %d, got %d", MinStride, stride)
	}
	buf := make([]byte, stride)
	for i, s := range strs {
		if !utf8.ValidString(s) {
			return errors.InvalidUTF8(errors.PhaseEncode, []string{"strings", strconv.Itoa(i)}, []byte(s))
		}
		payload := TruncateUTF8(s, int(stride-1))
		copy(buf, payload)
		for j := len(payload); j < len(buf); j++ {
			buf[j] = 0
		}
		if err := mem.Write(ptr+uint32(i)*stride, buf); err != nil {
			return errors.OutOfBounds(errors.PhaseEncode, ptr+uint32(i)*stride, stride, err)
		}
	}
	return nil
}

// ReadCString reads up to maxBytes from ptr, stops at the first NUL byte,
// and decodes the byte range as UTF-8.
func ReadCString(mem tspice.Memory, ptr, maxBytes uint32) (string, error) {
	if maxBytes == 0 {
		return "", nil
	}
	buf, err := mem.Read(ptr, maxBytes)
	if err != nil {
		return "", errors.OutOfBounds(errors.PhaseDecode, ptr, maxBytes, err)
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	if !utf8.Valid(buf) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, nil, buf)
	}
	return string(buf), nil
}

// ReadFixedStrings decodes count fixed-width C strings of the given stride
// starting at ptr.
func ReadFixedStrings(mem tspice.Memory, ptr, stride uint32, count int) ([]string, error) {
	if stride < MinStride {
		return nil, errors.InvalidInput(errors.PhaseDecode, "string stride must be >= %d, got %d", MinStride, stride)
	}
	out := make([]string, count)
	for i := range out {
		s, err := ReadCString(mem, ptr+uint32(i)*stride, stride)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// MaxByteLen returns the longest UTF-8 byte length among strs. Used to size
// fixed-width array strides.
func MaxByteLen(strs []string) int {
	max := 0
	for _, s := range strs {
		if len(s) > max {
			max = len(s)
		}
	}
	return max
}
