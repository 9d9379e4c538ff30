package datatype

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	extendedPattern = regexp.MustCompile(`^\[(?i:(text|base64|file|url))(?:\s+([^\]]+))?\]`)
	uuidPattern     = regexp.MustCompile(`^(?i:uuid)'([^']*)'$`)

	// urlClient fetches [url] values.
	urlClient = &http.Client{Timeout: 30 * time.Second}
)

// bytesType covers BINARY, VARBINARY, LONGVARBINARY and BLOB. Values are
// []byte. Text is accepted as:
//
//	[text]hello            UTF-8 bytes of "hello"
//	[text UTF-16BE]hello   "hello" in the named charset
//	[base64]aGVsbG8=       decoded base64
//	[file]/path/to/file    file contents
//	[url]http://host/x     response body (file: URLs read the file)
//	uuid'<uuid>'           the 16 bytes of the UUID
//	aGVsbG8=               anything else is base64; bad input yields no bytes
type bytesType struct {
	name    string
	sqlType SQLType
}

func (t *bytesType) Name() string     { return t.name }
func (t *bytesType) SQLType() SQLType { return t.sqlType }
func (t *bytesType) String() string   { return t.name }
func (t *bytesType) IsNumber() bool   { return false }
func (t *bytesType) IsDateTime() bool { return false }

func (t *bytesType) TypeCast(v any) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case []byte:
		return x, nil
	case [16]byte:
		return x[:], nil
	case uuid.UUID:
		return x[:], nil
	case string:
		b, err := t.fromText(x)
		if err != nil {
			return nil, newCastError(v, t, err)
		}
		return b, nil
	}
	return nil, newCastError(v, t, nil)
}

func (t *bytesType) fromText(s string) ([]byte, error) {
	if m := extendedPattern.FindStringSubmatchIndex(s); m != nil {
		kind := strings.ToLower(s[m[2]:m[3]])
		arg := ""
		if m[4] >= 0 {
			arg = strings.TrimSpace(s[m[4]:m[5]])
		}
		rest := s[m[1]:]
		switch kind {
		case "text":
			return encodeText(rest, arg)
		case "base64":
			return decodeBase64(rest), nil
		case "file":
			return os.ReadFile(rest)
		case "url":
			return readURL(rest)
		}
	}
	if m := uuidPattern.FindStringSubmatch(s); m != nil {
		u, err := uuid.Parse(m[1])
		if err != nil {
			return nil, err
		}
		return u[:], nil
	}
	return decodeBase64(s), nil
}

func encodeText(s, charset string) ([]byte, error) {
	if charset == "" || strings.EqualFold(charset, "UTF-8") || strings.EqualFold(charset, "UTF8") {
		return []byte(s), nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, errors.Wrapf(err, "charset %q", charset)
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported charset %q", charset)
	}
	return enc.NewEncoder().Bytes([]byte(s))
}

func decodeBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return []byte{}
	}
	return b
}

func readURL(raw string) ([]byte, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "file" {
		return os.ReadFile(u.Path)
	}
	resp, err := urlClient.Get(raw)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("GET %s: %s", raw, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (t *bytesType) Compare(a, b any) (int, error) {
	return compareValues(t, a, b, func(x, y any) int {
		return bytes.Compare(x.([]byte), y.([]byte))
	})
}

func (t *bytesType) ReadFrom(c Cursor, col int) (any, error) {
	b, err := c.Bytes(col)
	if err != nil {
		return nil, err
	}
	null, err := c.WasNull()
	if err != nil || null {
		return nil, err
	}
	return b, nil
}

func (t *bytesType) WriteTo(s Sink, idx int, v any) error {
	return writeValue(t, s, idx, v)
}
