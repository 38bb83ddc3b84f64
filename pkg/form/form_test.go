package form

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedForm(boundaries ...string) *Form {
	i := 0
	next := func() string {
		b := boundaries[i]
		if i < len(boundaries)-1 {
			i++
		}
		return b
	}
	f := &Form{newBoundary: next}
	f.boundary = next()
	return f
}

func TestForm_SerializesExactLayout(t *testing.T) {
	f := fixedForm("XYZ")
	f.AddField("a", "1")
	f.AddFile("file", "part.bin", []byte{0x00, 0x01, 0xff}, "application/x-test")
	f.AddField("b", "2")

	want := strings.Join([]string{
		"--XYZ",
		`Content-Disposition: form-data; name="a"`,
		"",
		"1",
		"--XYZ",
		`Content-Disposition: form-data; name="b"`,
		"",
		"2",
		"--XYZ",
		`Content-Disposition: file; name="file"; filename="part.bin"`,
		"Content-Type: application/x-test",
		"",
		"\x00\x01\xff",
		"--XYZ--",
		"",
	}, "\r\n")

	assert.Equal(t, want, string(f.Bytes()))
	assert.Equal(t, int64(len(want)), f.Len())
	assert.Equal(t, "multipart/form-data; boundary=XYZ", f.ContentType())
}

func TestForm_EmptyForm(t *testing.T) {
	f := fixedForm("XYZ")
	assert.Equal(t, "\r\n--XYZ--\r\n", string(f.Bytes()))
}

func TestForm_InvalidBoundary(t *testing.T) {
	f := fixedForm("not@valid")
	f.AddField("a", "1")

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
	assert.Nil(t, f.Bytes())
	assert.Zero(t, f.Len())
}

func TestForm_PreservesInsertionOrder(t *testing.T) {
	f := New()
	names := []string{"first", "second", "third", "fourth"}
	for i, n := range names {
		f.AddField(n, strings.Repeat("v", i+1))
	}
	f.AddFile("f1", "one.txt", []byte("one"), "")
	f.AddFile("f2", "two.txt", []byte("two"), "")

	_, params, err := mime.ParseMediaType(f.ContentType())
	require.NoError(t, err)
	mr := multipart.NewReader(bytes.NewReader(f.Bytes()), params["boundary"])

	var got []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		if p.FileName() != "" {
			got = append(got, p.FileName()+"="+string(data))
			assert.Equal(t, "text/plain; charset=utf-8", p.Header.Get("Content-Type"))
		} else {
			got = append(got, p.FormName()+"="+string(data))
		}
	}

	assert.Equal(t, []string{
		"first=v", "second=vv", "third=vvv", "fourth=vvvv",
		"one.txt=one", "two.txt=two",
	}, got)
}

func TestForm_BoundaryFramesEveryPart(t *testing.T) {
	f := fixedForm("B0UND")
	f.AddField("x", "y")
	f.AddFile("file", "a.bin", []byte("abc"), "")
	out := string(f.Bytes())

	assert.Equal(t, 3, strings.Count(out, "--B0UND"))
	assert.True(t, strings.HasPrefix(out, "--B0UND\r\n"))
	assert.True(t, strings.HasSuffix(out, "\r\n--B0UND--\r\n"))
}

func TestForm_RerollsBoundaryOnCollision(t *testing.T) {
	f := fixedForm("AAA", "BBB", "CCC", "DDD")
	f.AddField("note", "ok")
	assert.Equal(t, "AAA", f.Boundary())

	f.AddFile("file", "a.bin", []byte("data --AAA more"), "")
	assert.Equal(t, "BBB", f.Boundary())

	// The new boundary is re-verified against earlier parts too.
	f.AddField("later", "--CCC")
	assert.Equal(t, "BBB", f.Boundary())

	// CCC is skipped because "later" already carries it.
	f.AddField("clash", "x--BBBx")
	assert.Equal(t, "DDD", f.Boundary())
	assert.True(t, f.collides("AAA"))
	assert.True(t, f.collides("BBB"))
}

func TestForm_RandomBoundaryIsStablePerForm(t *testing.T) {
	f := New()
	b := f.Boundary()
	require.NotEmpty(t, b)
	f.AddField("a", "b")
	f.AddFile("file", "c.bin", []byte("d"), "")
	assert.Equal(t, b, f.Boundary())
	assert.NotEqual(t, b, New().Boundary())
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", ContentTypeFor("notes.txt"))
	assert.Equal(t, DefaultContentType, ContentTypeFor("print.flashshipunknown"))
	assert.Equal(t, DefaultContentType, ContentTypeFor("noext"))
}

func TestForm_ReadFile(t *testing.T) {
	f := fixedForm("Q")
	require.NoError(t, f.ReadFile("file", "x.bin", strings.NewReader("payload"), "application/x-test"))
	assert.Contains(t, string(f.Bytes()), "\r\n\r\npayload\r\n--Q--\r\n")
}
