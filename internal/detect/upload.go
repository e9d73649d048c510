package detect

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind says which endpoint an upload goes to.
type Kind int

const (
	KindUnsupported Kind = iota
	KindImage
	KindText
)

// ErrNoInput is returned when a submission carries neither a file nor text.
var ErrNoInput = errors.New("no file or text submitted")

// MsgNoInput is shown for ErrNoInput.
const MsgNoInput = "Please upload a file to detect."

// Classify picks the endpoint for a file from its declared content type,
// sniffing data when the type is missing or generic. Text that is not valid
// UTF-8 is unsupported.
func Classify(contentType string, data []byte) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.HasPrefix(ct, "text/"):
		if !utf8.Valid(data) {
			return KindUnsupported
		}
		return KindText
	default:
		return KindUnsupported
	}
}
