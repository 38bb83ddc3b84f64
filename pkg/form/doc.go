// Package form builds multipart/form-data request bodies for the card's
// upload.cgi endpoint.
//
// Bodies are encoded with mime/multipart: fields first, then files, each
// part framed by the boundary. File parts carry a "file" disposition, as
// the card firmware expects. The boundary is checked against every payload
// and replaced if a payload happens to contain it.
//
// # Usage
//
//	f := form.New()
//	f.AddFile("file", "part.x3g", data, "")
//
//	var body bytes.Buffer
//	if _, err := f.WriteTo(&body); err != nil {
//		return err
//	}
//	req.Header.Set("Content-Type", f.ContentType())
package form
