package codec

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateUTF8_NeverSplitsCodepoints(t *testing.T) {
	samples := []string{
		"",
		"a",
		"hello",
		"héllo wörld",
		"日本語のテキスト",
		"mixed 🚀 emoji 🌍 text",
		"aé日🚀",
	}

	for _, s := range samples {
		for budget := 0; budget <= len(s)+2; budget++ {
			got := TruncateUTF8(s, budget)
			if len(got) > budget {
				t.Fatalf("TruncateUTF8(%q, %d) = %q exceeds budget", s, budget, got)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("TruncateUTF8(%q, %d) = %q is not valid UTF-8", s, budget, got)
			}
			if !strings.HasPrefix(s, got) {
				t.Fatalf("TruncateUTF8(%q, %d) = %q is not a prefix", s, budget, got)
			}
		}
	}
}

func TestTruncateUTF8_DropsWholeCodepoint(t *testing.T) {
	// "é" is 2 bytes; a 3-byte budget fits "aé" but a 2-byte budget must
	// drop the é entirely rather than keep its lead byte.
	if got := TruncateUTF8("aé", 2); got != "a" {
		t.Fatalf("expected %q, got %q", "a", got)
	}
	if got := TruncateUTF8("aé", 3); got != "aé" {
		t.Fatalf("expected %q, got %q", "aé", got)
	}
}

func TestWriteCString(t *testing.T) {
	mem := newByteMemory(32)

	if err := WriteCString(mem, 0, 16, "kernel.bsp"); err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}
	got, err := ReadCString(mem, 0, 16)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if got != "kernel.bsp" {
		t.Fatalf("round trip got %q", got)
	}
}

func TestWriteCString_EmptyStillNULTerminated(t *testing.T) {
	mem := newByteMemory(8)
	mem.data[0] = 0xFF // stale garbage

	if err := WriteCString(mem, 0, 4, ""); err != nil {
		t.Fatalf("WriteCString failed: %v", err)
	}
	if mem.data[0] != 0 {
		t.Fatal("empty string did not receive its NUL byte")
	}
}

func TestWriteCString_RejectsTinyStorage(t *testing.T) {
	mem := newByteMemory(8)
	for _, max := range []uint32{0, 1} {
		if err := WriteCString(mem, 0, max, "x"); err == nil {
			t.Fatalf("expected error for maxBytes=%d", max)
		}
	}
}

func TestWriteCString_RejectsInvalidUTF8(t *testing.T) {
	mem := newByteMemory(8)
	if err := WriteCString(mem, 0, 8, string([]byte{0xFF, 0xFE})); err == nil {
		t.Fatal("expected invalid UTF-8 error")
	}
}

func TestEncodeFixedStrings_RoundTrip(t *testing.T) {
	mem := newByteMemory(256)
	strs := []string{"COL_A", "COL_B", "", "日本"}
	stride := uint32(16)

	if err := EncodeFixedStrings(mem, 0, stride, strs); err != nil {
		t.Fatalf("EncodeFixedStrings failed: %v", err)
	}
	got, err := ReadFixedStrings(mem, 0, stride, len(strs))
	if err != nil {
		t.Fatalf("ReadFixedStrings failed: %v", err)
	}
	for i := range strs {
		if got[i] != strs[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], strs[i])
		}
	}
}

func TestEncodeFixedStrings_TruncatesSafely(t *testing.T) {
	mem := newByteMemory(64)
	// stride 5: 4 payload bytes. "日本" is 6 bytes, so only the first
	// 3-byte codepoint fits.
	if err := EncodeFixedStrings(mem, 0, 5, []string{"日本"}); err != nil {
		t.Fatalf("EncodeFixedStrings failed: %v", err)
	}
	got, err := ReadFixedStrings(mem, 0, 5, 1)
	if err != nil {
		t.Fatalf("ReadFixedStrings failed: %v", err)
	}
	if got[0] != "日" {
		t.Fatalf("expected %q, got %q", "日", got[0])
	}
}

func TestEncodeFixedStrings_PadsStaleBytes(t *testing.T) {
	mem := newByteMemory(64)
	for i := range mem.data {
		mem.data[i] = 0xAA
	}

	if err := EncodeFixedStrings(mem, 0, 8, []string{"ab"}); err != nil {
		t.Fatalf("EncodeFixedStrings failed: %v", err)
	}
	for i := 2; i < 8; i++ {
		if mem.data[i] != 0 {
			t.Fatalf("byte %d not NUL-padded: 0x%02X", i, mem.data[i])
		}
	}
}

func TestEncodeFixedStrings_RejectsDegenerateStride(t *testing.T) {
	mem := newByteMemory(8)
	for _, stride := range []uint32{0, 1} {
		if err := EncodeFixedStrings(mem, 0, stride, []string{"a"}); err == nil {
			t.Fatalf("expected error for stride %d", stride)
		}
	}
}

func TestReadCString_StopsAtNUL(t *testing.T) {
	mem := newByteMemory(16)
	copy(mem.data, []byte("abc\x00def"))

	got, err := ReadCString(mem, 0, 8)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if got != "abc" {
		t.Fatalf("expected %q, got %q", "abc", got)
	}
}

func TestReadCString_NoNULUsesFullRange(t *testing.T) {
	mem := newByteMemory(4)
	copy(mem.data, []byte("abcd"))

	got, err := ReadCString(mem, 0, 4)
	if err != nil {
		t.Fatalf("ReadCString failed: %v", err)
	}
	if got != "abcd" {
		t.Fatalf("expected %q, got %q", "abcd", got)
	}
}

func TestMaxByteLen(t *testing.T) {
	if got := MaxByteLen([]string{"a", "日本", "xy"}); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
	if got := MaxByteLen(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %d", got)
	}
}
