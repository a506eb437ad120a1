package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed vault document")

// Encode serializes d as the UTF-8 JSON document stored in vault files.
func Encode(d *Data) ([]byte, error) {
	doc := Data{Groups: d.Groups, Records: d.Records}
	if doc.Groups == nil {
		doc.Groups = []Group{}
	}
	if doc.Records == nil {
		doc.Records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode vault: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// wire types mirror Group and Record with every field required.
type wireGroup struct {
	ID   *uint32 `json:"id"`
	PID  *uint32 `json:"pid"`
	Name *string `json:"name"`
}

type wireRecord struct {
	ID             *uint32 `json:"id"`
	PID            *uint32 `json:"pid"`
	Name           *string `json:"name"`
	Login          *string `json:"login"`
	Password       *string `json:"password"`
	URL            *string `json:"url"`
	LoginSymbol    *Symbol `json:"loginSymbol"`
	PasswordSymbol *Symbol `json:"passwordSymbol"`
	URLSymbol      *Symbol `json:"urlSymbol"`
}

type wireDoc struct {
	Groups  *[]wireGroup  `json:"groups"`
	Records *[]wireRecord `json:"records"`
}

// Decode parses a vault document. Unknown fields are ignored; missing or
// null known fields are rejected.
func Decode(data []byte) (*Data, error) {
	var doc wireDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if doc.Groups == nil {
		return nil, fmt.Errorf("%w: missing groups", ErrMalformed)
	}
	if doc.Records == nil {
		return nil, fmt.Errorf("%w: missing records", ErrMalformed)
	}

	d := &Data{
		Groups:  make([]Group, 0, len(*doc.Groups)),
		Records: make([]Record, 0, len(*doc.Records)),
	}
	for i, g := range *doc.Groups {
		if g.ID == nil || g.PID == nil || g.Name == nil {
			return nil, fmt.Errorf("%w: group %d is incomplete", ErrMalformed, i)
		}
		d.Groups = append(d.Groups, Group{ID: *g.ID, PID: *g.PID, Name: *g.Name})
	}
	for i, r := range *doc.Records {
		if r.ID == nil || r.PID == nil || r.Name == nil || r.Login == nil || r.Password == nil ||
			r.URL == nil || r.LoginSymbol == nil || r.PasswordSymbol == nil || r.URLSymbol == nil {
			return nil, fmt.Errorf("%w: record %d is incomplete", ErrMalformed, i)
		}
		d.Records = append(d.Records, Record{
			ID:             *r.ID,
			PID:            *r.PID,
			Name:           *r.Name,
			Login:          *r.Login,
			Password:       *r.Password,
			URL:            *r.URL,
			LoginSymbol:    *r.LoginSymbol,
			PasswordSymbol: *r.PasswordSymbol,
			URLSymbol:      *r.URLSymbol,
		})
	}
	return d, nil
}
