package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oyoplus/booking-service/internal/domain"
)

// nullText maps an empty string to NULL
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// nullTime maps a zero time to NULL
func nullTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// dateFromLayout parses a YYYY-MM-DD booking date for a DATE column
func dateFromLayout(s string) (pgtype.Date, error) {
	t, err := time.Parse(domain.CheckInLayout, s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func dateToLayout(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(domain.CheckInLayout)
}
