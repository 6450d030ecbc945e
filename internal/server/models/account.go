package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Account is the stored credential record. SecretHash never leaves the
// server: outward representations go through View.
type Account struct {
	ID         string
	Identifier string
	SecretHash string
	Address    string
	BirthDate  *Date
	Favorites  []string
	CreatedAt  time.Time
}

// AccountView is the only JSON shape an account is ever rendered in.
type AccountView struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Address    string    `json:"address"`
	BirthDate  *Date     `json:"birthDate,omitempty"`
	Favorites  []string  `json:"favorites"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (a *Account) View() AccountView {
	favorites := make([]string, len(a.Favorites))
	copy(favorites, a.Favorites)
	return AccountView{
		ID:         a.ID,
		Identifier: a.Identifier,
		Address:    a.Address,
		BirthDate:  a.BirthDate,
		Favorites:  favorites,
		CreatedAt:  a.CreatedAt,
	}
}

// AccountPatch lists the columns an update may touch. Nil means "leave as is".
type AccountPatch struct {
	Identifier *string
	SecretHash *string
	Address    *string
	BirthDate  *Date
}

// Empty reports whether the patch would change nothing.
func (p AccountPatch) Empty() bool {
	return p.Identifier == nil && p.SecretHash == nil && p.Address == nil && p.BirthDate == nil
}

// Date is a calendar date without time of day. It reads "2006-01-02" and the
// legacy "02/01/2006" form and always writes "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, "02/01/2006", time.RFC3339}

func ParseDate(s string) (Date, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			y, m, d := t.Date()
			return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}, nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
