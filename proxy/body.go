package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Body is the request payload forwarded to a backend. It is one of NoBody, JSONBody or MultipartBody.
type Body interface {
	isBody()
}

// NoBody forwards no payload and no Content-Type.
type NoBody struct{}

// JSONBody forwards a validated JSON document under the inbound content type.
type JSONBody struct {
	ContentType string
	Raw         json.RawMessage
}

// MultipartBody forwards form parts, re-encoded under a fresh boundary.
type MultipartBody struct {
	Parts []Part
}

// Part is one multipart section with its own headers (Content-Disposition, Content-Type).
type Part struct {
	Header textproto.MIMEHeader
	Data   []byte
}

func (NoBody) isBody()        {}
func (JSONBody) isBody()      {}
func (MultipartBody) isBody() {}

// ExtractBody reads the inbound payload. GET and HEAD never carry one; anything
// that cannot be parsed, or exceeds maxBytes, is forwarded as NoBody.
func ExtractBody(r *http.Request, maxBytes int64) Body {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil || r.Body == http.NoBody {
		return NoBody{}
	}

	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "application/json"):
		return readJSON(r.Header.Get("Content-Type"), r.Body, maxBytes)
	case strings.Contains(contentType, "multipart/form-data"):
		parts, err := readParts(r.Header.Get("Content-Type"), r.Body, maxBytes)
		if err != nil {
			return NoBody{}
		}
		return MultipartBody{Parts: parts}
	}
	return NoBody{}
}

func readJSON(contentType string, body io.Reader, maxBytes int64) Body {
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil || int64(len(data)) > maxBytes {
		return NoBody{}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || !json.Valid(data) {
		return NoBody{}
	}
	return JSONBody{ContentType: contentType, Raw: data}
}

func readParts(contentType string, body io.Reader, maxBytes int64) ([]Part, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("missing multipart boundary")
	}

	mr := multipart.NewReader(io.LimitReader(body, maxBytes), boundary)
	var parts []Part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(p)
		_ = p.Close()
		if err != nil {
			return nil, err
		}
		header := make(textproto.MIMEHeader, len(p.Header))
		for k, v := range p.Header {
			header[k] = append([]string(nil), v...)
		}
		parts = append(parts, Part{Header: header, Data: data})
	}
}

// encodeBody renders b for the outbound request. An empty content type means no body.
func encodeBody(b Body) (io.Reader, string, error) {
	switch body := b.(type) {
	case NoBody:
		return nil, "", nil
	case JSONBody:
		contentType := body.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		return bytes.NewReader(body.Raw), contentType, nil
	case MultipartBody:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, part := range body.Parts {
			pw, err := mw.CreatePart(part.Header)
			if err != nil {
				return nil, "", err
			}
			if _, err := pw.Write(part.Data); err != nil {
				return nil, "", err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return bytes.NewReader(buf.Bytes()), mw.FormDataContentType(), nil
	default:
		return nil, "", fmt.Errorf("unsupported body %T", b)
	}
}
