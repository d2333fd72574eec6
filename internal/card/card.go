// Package card validates payment cards before a checkout is accepted.
// Nothing is charged; the number only has to be well formed and unexpired.
package card

import (
	"strings"
	"time"
)

type Details struct {
	Number      string `json:"number" binding:"required,cardnumber"`
	ExpiryMonth int    `json:"expiryMonth" binding:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiryYear" binding:"required"`
}

// Validate reports whether number passes the Luhn checksum and the card has
// not expired relative to now.
func Validate(number string, expiryMonth, expiryYear int, now time.Time) bool {
	return Luhn(number) && !Expired(expiryMonth, expiryYear, now)
}

func (d Details) Valid(now time.Time) bool {
	return Validate(d.Number, d.ExpiryMonth, d.ExpiryYear, now)
}

// Luhn checks the mod-10 checksum. Spaces and dashes are ignored.
func Luhn(number string) bool {
	digits := Normalize(number)
	if digits == "" {
		return false
	}

	sum := 0
	for i := 0; i < len(digits); i++ {
		c := digits[len(digits)-1-i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// Expired reports whether the last day of the expiry month is before now's date.
func Expired(month, year int, now time.Time) bool {
	if month < 1 || month > 12 || year <= 0 {
		return true
	}
	// day 0 of the following month is the last day of this one
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return lastDay.Before(today)
}

// Normalize strips the separators people type into card fields.
func Normalize(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
}

// Digits reports whether number holds 12 to 19 digits once separators are removed.
func Digits(number string) bool {
	n := Normalize(number)
	if len(n) < 12 || len(n) > 19 {
		return false
	}
	for _, c := range n {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
