package sequences

import "math/rand/v2"

// Character pools matching the ticketing system's password policy.
const (
	passwordDigits  = "0123456789"
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordSpecial = ".@()-_"
)

// GeneratePassword builds a temporary password guaranteed to contain at
// least one digit, one uppercase letter, one lowercase letter and one
// special character. It exists to satisfy the ticketing system's password
// policy for must-change-at-next-login resets and is not suitable for
// long-lived credentials.
func GeneratePassword(length int) string {
	if length < 4 {
		length = 4
	}
	all := passwordDigits + passwordUpper + passwordLower + passwordSpecial
	pools := []string{passwordDigits, passwordUpper, passwordLower, passwordSpecial}

	buf := make([]byte, length)
	for i := range buf {
		pool := all
		if i < len(pools) {
			pool = pools[i]
		}
		buf[i] = pool[rand.IntN(len(pool))]
	}
	rand.Shuffle(len(buf), func(i, j int) {
		buf[i], buf[j] = buf[j], buf[i]
	})
	return string(buf)
}
