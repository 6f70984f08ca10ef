package utils

var (
	cpfWeights1  = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// OnlyDigits удаляет из строки все символы, кроме цифр.
func OnlyDigits(s string) string {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	return string(digits)
}

// IsCPF проверяет, что после очистки осталось 11 цифр.
func IsCPF(s string) bool {
	return len(OnlyDigits(s)) == 11
}

// IsCNPJ проверяет, что после очистки осталось 14 цифр.
func IsCNPJ(s string) bool {
	return len(OnlyDigits(s)) == 14
}

// ValidTaxID проверяет контрольные цифры CPF или CNPJ.
func ValidTaxID(s string) bool {
	digits := OnlyDigits(s)
	switch len(digits) {
	case 11:
		return validChecksum(digits, cpfWeights1, cpfWeights2)
	case 14:
		return validChecksum(digits, cnpjWeights1, cnpjWeights2)
	}
	return false
}

func validChecksum(digits string, w1, w2 []int) bool {
	if allSame(digits) {
		return false
	}
	n := len(digits)
	d1 := checkDigit(digits[:n-2], w1)
	d2 := checkDigit(digits[:n-1], w2)
	return d1 == int(digits[n-2]-'0') && d2 == int(digits[n-1]-'0')
}

func checkDigit(base string, weights []int) int {
	sum := 0
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
