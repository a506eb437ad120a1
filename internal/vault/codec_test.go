package vault

import (
	"errors"
	"reflect"
	"testing"
)

func sampleData() *Data {
	d := NewData("")
	g, _ := d.AddGroup(1, "Email")
	d.AddRecord(Record{
		PID:            g.ID,
		Name:           "gmail",
		Login:          "user@example.com",
		Password:       "p<a>ss&word",
		URL:            "https://mail.google.com",
		LoginSymbol:    SymbolTab,
		PasswordSymbol: SymbolEnter,
		URLSymbol:      SymbolNone,
	})
	return d
}

func TestEncodeShape(t *testing.T) {
	d := NewData("")
	d.AddRecord(Record{
		PID:            1,
		Name:           "n",
		Login:          "l",
		Password:       "p",
		URL:            "u",
		LoginSymbol:    SymbolTab,
		PasswordSymbol: SymbolSpace,
		URLSymbol:      SymbolEnter,
	})

	got, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"groups":[{"id":1,"pid":0,"name":"NewDatabase"}],"records":[{"id":2,"pid":1,"name":"n","login":"l","password":"p","url":"u","loginSymbol":"TAB","passwordSymbol":"SPACE","urlSymbol":"ENTER"}]}`
	if string(got) != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeNilCollections(t *testing.T) {
	got, err := Encode(&Data{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(got) != `{"groups":[],"records":[]}` {
		t.Errorf("Encode(empty) = %s", got)
	}
}

func TestEncodeRejectsInvalidSymbol(t *testing.T) {
	d := NewData("")
	d.Records = append(d.Records, Record{ID: 2, PID: 1, LoginSymbol: "ESC", PasswordSymbol: SymbolNone, URLSymbol: SymbolNone})
	if _, err := Encode(d); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("Encode() error = %v, want ErrInvalidSymbol", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := sampleData()
	raw, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, d)
	}

	again, err := Encode(got)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(again) != string(raw) {
		t.Errorf("re-encoding changed the document:\n%s\n%s", again, raw)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	raw := `{"version":3,"groups":[{"id":1,"pid":0,"name":"root","color":"red"}],"records":[]}`
	d, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(d.Groups) != 1 || d.Groups[0].Name != "root" {
		t.Errorf("unexpected groups: %+v", d.Groups)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ``},
		{"not json", "\x8f\x01garbage"},
		{"array instead of object", `[]`},
		{"missing groups", `{"records":[]}`},
		{"missing records", `{"groups":[]}`},
		{"null groups", `{"groups":null,"records":[]}`},
		{"group missing name", `{"groups":[{"id":1,"pid":0}],"records":[]}`},
		{"group null id", `{"groups":[{"id":null,"pid":0,"name":"x"}],"records":[]}`},
		{"negative id", `{"groups":[{"id":-1,"pid":0,"name":"x"}],"records":[]}`},
		{"id overflows u32", `{"groups":[{"id":4294967296,"pid":0,"name":"x"}],"records":[]}`},
		{"lowercase symbol", `{"groups":[],"records":[{"id":2,"pid":1,"name":"","login":"","password":"","url":"","loginSymbol":"tab","passwordSymbol":"NONE","urlSymbol":"NONE"}]}`},
		{"record missing symbol", `{"groups":[],"records":[{"id":2,"pid":1,"name":"","login":"","password":"","url":"","loginSymbol":"TAB","passwordSymbol":"NONE"}]}`},
		{"trailing garbage", `{"groups":[],"records":[]}` + "\x10\x10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.raw, err)
			}
		})
	}
}
