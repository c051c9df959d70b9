package order

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	maxFractionDigits = 2
	minorPerMajor     = 100
)

// ValidateAmount проверяет, что строка задаёт положительную сумму не более
// чем с двумя знаками после точки, и возвращает её без пробелов.
func ValidateAmount(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	whole, frac, hasDot := strings.Cut(value, ".")
	if whole == "" || !digitsOnly(whole) {
		return "", ErrInvalidAmount
	}
	if hasDot && (frac == "" || len(frac) > maxFractionDigits || !digitsOnly(frac)) {
		return "", ErrInvalidAmount
	}
	if strings.Trim(whole+frac, "0") == "" {
		return "", ErrInvalidAmount
	}
	return value, nil
}

// ToMinorUnits переводит сумму в минимальные единицы валюты: "49.99" -> 4999.
func ToMinorUnits(raw string) (int64, error) {
	value, err := ValidateAmount(raw)
	if err != nil {
		return 0, err
	}
	whole, frac, _ := strings.Cut(value, ".")
	frac += strings.Repeat("0", maxFractionDigits-len(frac))

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || major > math.MaxInt64/minorPerMajor-1 {
		return 0, ErrInvalidAmount
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return major*minorPerMajor + minor, nil
}

// FormatMinorUnits форматирует цену курса, хранящуюся в минимальных единицах: 4999 -> "49.99".
func FormatMinorUnits(units int) string {
	return fmt.Sprintf("%d.%02d", units/minorPerMajor, units%minorPerMajor)
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
