package message

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"bytes"
)

// QueryPart is the loosely-typed input shape a caller may hand to
// CanonicalizeQuery before it becomes a Message: plain text, an in-memory
// image, or already-encoded bytes with a declared MIME type.
type QueryPart struct {
	Text     string
	Image    image.Image
	Bytes    []byte
	MimeType string
}

// CanonicalizeQuery converts a caller-supplied query of unknown shape into
// canonical []Message form. Accepted inputs:
//   - string: becomes a single user Text message
//   - []QueryPart: becomes a single user message with one Part per entry
//   - []Message: already canonical, validated and returned unchanged
//
// The conversion is idempotent: canonicalizing an already-canonical
// []Message returns it as-is (besides the systemPrompt message prepended
// once, never duplicated).
func CanonicalizeQuery(query any, systemPrompt string) ([]Message, error) {
	var messages []Message

	switch q := query.(type) {

	case string:
		messages = []Message{NewText(RoleUser, q)}

	case []QueryPart:
		parts, err := queryPartsToParts(q)
		if err != nil {
			return nil, err
		}
		messages = []Message{{Role: RoleUser, Parts: parts}}

	case []Message:
		messages = append([]Message{}, q...)

	case Message:
		messages = []Message{q}

	default:
		return nil, fmt.Errorf("message: unsupported query type %T", query)
	}

	if systemPrompt == "" {
		return messages, nil
	}
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages, nil
	}

	return append([]Message{NewText(RoleSystem, systemPrompt)}, messages...), nil
}

func queryPartsToParts(qps []QueryPart) ([]Part, error) {
	parts := make([]Part, 0, len(qps))
	for _, qp := range qps {
		switch {
		case qp.Text != "":
			parts = append(parts, Text(qp.Text))

		case qp.Image != nil:
			data, mimeType, err := encodeImage(qp.Image)
			if err != nil {
				return nil, err
			}
			parts = append(parts, ImageBase64{MimeType: mimeType, Data: data})

		case qp.Bytes != nil:
			if qp.MimeType == "" {
				return nil, fmt.Errorf("message: QueryPart.Bytes requires a MimeType")
			}
			parts = append(parts, ImageBase64{
				MimeType: qp.MimeType,
				Data:     base64.StdEncoding.EncodeToString(qp.Bytes),
			})

		default:
			return nil, fmt.Errorf("message: empty QueryPart")
		}
	}
	return parts, nil
}

func encodeImage(img image.Image) (data string, mimeType string, err error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png", nil
}

// DataURL builds a data: URL from an ImageBase64 part, for providers whose
// wire format wants URLs rather than split mime/data fields.
func (i ImageBase64) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MimeType, i.Data)
}
