package form

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultContentType is used for files whose extension has no MIME mapping.
const DefaultContentType = "application/octet-stream"

type field struct {
	name  string
	value string
}

type file struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// Form accumulates text fields and file attachments in insertion order.
// The zero value is not usable; call New.
type Form struct {
	fields   []field
	files    []file
	boundary string

	// newBoundary is swapped in tests to force collisions.
	newBoundary func() string
}

// New returns an empty form with a freshly chosen boundary.
func New() *Form {
	f := &Form{newBoundary: randomBoundary}
	f.boundary = f.newBoundary()
	return f
}

func randomBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Boundary returns the boundary token currently in use.
func (f *Form) Boundary() string { return f.boundary }

// ContentType returns the multipart content type carrying the boundary.
func (f *Form) ContentType() string {
	return "multipart/form-data; boundary=" + f.boundary
}

// AddField appends a text field.
func (f *Form) AddField(name, value string) {
	f.fields = append(f.fields, field{name: name, value: value})
	f.ensureBoundary()
}

// AddFile appends a file attachment. An empty contentType is inferred from
// the filename extension, falling back to DefaultContentType.
func (f *Form) AddFile(fieldName, filename string, content []byte, contentType string) {
	if contentType == "" {
		contentType = ContentTypeFor(filename)
	}
	f.files = append(f.files, file{
		field:       fieldName,
		filename:    filename,
		contentType: contentType,
		content:     content,
	})
	f.ensureBoundary()
}

// ReadFile appends a file attachment read from r.
func (f *Form) ReadFile(fieldName, filename string, r io.Reader, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	f.AddFile(fieldName, filename, b, contentType)
	return nil
}

// ContentTypeFor infers a MIME type from the filename extension.
func ContentTypeFor(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return DefaultContentType
}

// ensureBoundary draws new boundaries until none of the payloads contain it.
func (f *Form) ensureBoundary() {
	for f.collides(f.boundary) {
		f.boundary = f.newBoundary()
	}
}

func (f *Form) collides(b string) bool {
	marker := "--" + b
	for _, fl := range f.fields {
		if strings.Contains(fl.name, marker) || strings.Contains(fl.value, marker) {
			return true
		}
	}
	for _, fl := range f.files {
		if strings.Contains(fl.field, marker) || strings.Contains(fl.filename, marker) ||
			bytes.Contains(fl.content, []byte(marker)) {
			return true
		}
	}
	return false
}

// WriteTo serializes the form to w.
func (f *Form) WriteTo(w io.Writer) (int64, error) {
	buf, err := f.encode()
	if err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// Bytes returns the serialized form, or nil if it cannot be encoded.
func (f *Form) Bytes() []byte {
	buf, err := f.encode()
	if err != nil {
		return nil
	}
	return buf.Bytes()
}

// Len returns the exact serialized length in bytes.
func (f *Form) Len() int64 {
	buf, err := f.encode()
	if err != nil {
		return 0
	}
	return int64(buf.Len())
}

func (f *Form) encode() (*bytes.Buffer, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.SetBoundary(f.boundary); err != nil {
		return nil, fmt.Errorf("set boundary: %w", err)
	}

	for _, fl := range f.fields {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, fl.name))
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create field %s: %w", fl.name, err)
		}
		if _, err := io.WriteString(part, fl.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", fl.name, err)
		}
	}
	for _, fl := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`file; name="%s"; filename="%s"`, fl.field, fl.filename))
		h.Set("Content-Type", fl.contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create file %s: %w", fl.filename, err)
		}
		if _, err := part.Write(fl.content); err != nil {
			return nil, fmt.Errorf("write file %s: %w", fl.filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart: %w", err)
	}
	return &body, nil
}
