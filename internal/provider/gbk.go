package provider

import (
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DecodeGBK decodes raw provider bytes as GBK, the charset the CN endpoints
// actually serve regardless of what their headers declare. Only when the GBK
// decode itself fails does it fall back to interpreting the bytes as UTF-8;
// no further fallback is attempted.
func DecodeGBK(raw []byte) string {
	out, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
