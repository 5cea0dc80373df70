package services

import (
	"strings"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Encoding names the character encoding a buffer was decoded with.
type Encoding string

const (
	EncodingUTF8 Encoding = "utf-8"
	EncodingBig5 Encoding = "big5"
)

// domainMarkers are substrings that only appear when the feed decoded correctly.
var domainMarkers = []string{"預售屋", "建案", "臺北市", "行政區"}

// Decoded is the outcome of DecodeContent: the text and the stage that produced it.
type Decoded struct {
	Text     string
	Encoding Encoding
}

// DecodeContent turns a raw buffer into text. UTF-8 is tried first and kept
// when it contains a known column or municipality marker; otherwise Big5 is
// used. A Big5 failure falls back to the UTF-8 text. It never fails.
func DecodeContent(buf []byte) Decoded {
	utf8Text := strings.ToValidUTF8(string(buf), "\uFFFD")
	if containsMarker(utf8Text) {
		return Decoded{Text: utf8Text, Encoding: EncodingUTF8}
	}

	big5, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), buf)
	if err != nil {
		return Decoded{Text: utf8Text, Encoding: EncodingUTF8}
	}
	return Decoded{Text: string(big5), Encoding: EncodingBig5}
}

func containsMarker(text string) bool {
	for _, m := range domainMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
