package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	RootGroupID     uint32 = 1
	DefaultRootName        = "NewDatabase"
)

var (
	ErrInvalidSymbol = errors.New("invalid input symbol")
	ErrIDExhausted   = errors.New("id space exhausted")
)

// Symbol is the key sent after a field during auto-fill.
type Symbol string

const (
	SymbolTab   Symbol = "TAB"
	SymbolEnter Symbol = "ENTER"
	SymbolSpace Symbol = "SPACE"
	SymbolNone  Symbol = "NONE"
)

// Symbols lists every valid Symbol.
var Symbols = []Symbol{SymbolTab, SymbolEnter, SymbolSpace, SymbolNone}

// ParseSymbol accepts the on-disk spelling of a symbol.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(s)
	if !sym.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// Valid reports whether s is one of the four known symbols.
func (s Symbol) Valid() bool {
	switch s {
	case SymbolTab, SymbolEnter, SymbolSpace, SymbolNone:
		return true
	}
	return false
}

func (s Symbol) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, string(s))
	}
	return json.Marshal(string(s))
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sym, err := ParseSymbol(str)
	if err != nil {
		return err
	}
	*s = sym
	return nil
}

// Group is a named category node
type Group struct {
	ID   uint32 `json:"id"`
	PID  uint32 `json:"pid"`
	Name string `json:"name"`
}

// Record is a single credential entry
type Record struct {
	ID             uint32 `json:"id"`
	PID            uint32 `json:"pid"`
	Name           string `json:"name"`
	Login          string `json:"login"`
	Password       string `json:"password"`
	URL            string `json:"url"`
	LoginSymbol    Symbol `json:"loginSymbol"`
	PasswordSymbol Symbol `json:"passwordSymbol"`
	URLSymbol      Symbol `json:"urlSymbol"`
}

// Data is the whole vault: every group and every record.
type Data struct {
	Groups  []Group  `json:"groups"`
	Records []Record `json:"records"`
}

// NewData creates a vault holding only the root group.
func NewData(rootName string) *Data {
	if rootName == "" {
		rootName = DefaultRootName
	}
	return &Data{
		Groups:  []Group{{ID: RootGroupID, PID: 0, Name: rootName}},
		Records: make([]Record, 0),
	}
}

// NextID returns max(all group and record ids) + 1.
func (d *Data) NextID() (uint32, error) {
	var highest uint32
	for _, g := range d.Groups {
		if g.ID > highest {
			highest = g.ID
		}
	}
	for _, r := range d.Records {
		if r.ID > highest {
			highest = r.ID
		}
	}
	if highest == math.MaxUint32 {
		return 0, ErrIDExhausted
	}
	return highest + 1, nil
}

// AddGroup appends a new group under pid and returns it.
func (d *Data) AddGroup(pid uint32, name string) (Group, error) {
	id, err := d.NextID()
	if err != nil {
		return Group{}, err
	}
	g := Group{ID: id, PID: pid, Name: name}
	d.Groups = append(d.Groups, g)
	return g, nil
}

// AddRecord stores r under a freshly allocated id, ignoring r.ID.
func (d *Data) AddRecord(r Record) (Record, error) {
	id, err := d.NextID()
	if err != nil {
		return Record{}, err
	}
	r.ID = id
	d.Records = append(d.Records, r)
	return r, nil
}

// FindGroup finds a group by id
func (d *Data) FindGroup(id uint32) *Group {
	for i := range d.Groups {
		if d.Groups[i].ID == id {
			return &d.Groups[i]
		}
	}
	return nil
}

// FindRecord finds a record by id
func (d *Data) FindRecord(id uint32) *Record {
	for i := range d.Records {
		if d.Records[i].ID == id {
			return &d.Records[i]
		}
	}
	return nil
}

// RemoveGroup removes a group. Children are left in place.
func (d *Data) RemoveGroup(id uint32) bool {
	for i, g := range d.Groups {
		if g.ID == id {
			d.Groups = append(d.Groups[:i], d.Groups[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveRecord removes a record
func (d *Data) RemoveRecord(id uint32) bool {
	for i, r := range d.Records {
		if r.ID == id {
			d.Records = append(d.Records[:i], d.Records[i+1:]...)
			return true
		}
	}
	return false
}

// RecordsIn returns copies of the records whose parent is pid.
func (d *Data) RecordsIn(pid uint32) []Record {
	out := make([]Record, 0)
	for _, r := range d.Records {
		if r.PID == pid {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	c := &Data{
		Groups:  make([]Group, len(d.Groups)),
		Records: make([]Record, len(d.Records)),
	}
	copy(c.Groups, d.Groups)
	copy(c.Records, d.Records)
	return c
}
