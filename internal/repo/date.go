package repo

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// date stores timestamps as RFC3339 text, which is what the sqlite driver
// hands back for TEXT columns.
type date time.Time

func (d date) Value() (driver.Value, error) {
	return time.Time(d).Format(time.RFC3339), nil
}

func (d *date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = date(time.Time{})
		return nil
	case time.Time:
		*d = date(v)
		return nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			// CURRENT_TIMESTAMP defaults come back in sqlite's own format.
			t, err = time.Parse("2006-01-02 15:04:05", v)
			if err != nil {
				return err
			}
		}
		*d = date(t)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into date", value)
	}
}

func (d date) Time() time.Time {
	return time.Time(d)
}
