// Package common — pluralize.go содержит склонение числительных.
package common

// PluralRU выбирает форму слова для числа n по правилам русского языка.
// forms: [0] — «1 день», [1] — «2 дня», [2] — «5 дней».
//
// Правила:
//   - n%10==1 И n%100!=11 → forms[0] (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → forms[1]
//   - Остальные случаи → forms[2]
func PluralRU(n int64, forms [3]string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return forms[0]
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return forms[1]
	}
	return forms[2]
}

// PluralEN — английский вариант: одна форма для 1, вторая для остального.
func PluralEN(n int64, one, other string) string {
	if n == 1 || n == -1 {
		return one
	}
	return other
}
