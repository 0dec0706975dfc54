package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatAmount formats an amount with thousands separators and two decimals.
// Example: 15000.5 -> "15,000.50"
func FormatAmount(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	formatted := fmt.Sprintf("%.2f", math.Round(amount*100)/100)

	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	var result []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		result = append([]string{integerPart[start:i]}, result...)
	}

	return sign + strings.Join(result, ",") + "." + decimalPart
}
