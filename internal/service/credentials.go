package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"acadef/backend/internal/repository"
	"acadef/backend/pkg/storage"
)

// generateUsername returns an unused "first.last" username. A taken base gets
// a random 1-999 suffix, retried up to maxAttempts times; after that a hex
// suffix is used, which always terminates.
func generateUsername(ctx context.Context, users repository.UserRepository, firstName, lastName string, maxAttempts int) (string, error) {
	base := usernameBase(firstName, lastName)

	taken, err := users.ExistsByUsername(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for i := 0; i < maxAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(999))
		if err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%s%d", base, n.Int64()+1)
		taken, err := users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return base + "." + storage.NewHex()[:12], nil
}

func usernameBase(firstName, lastName string) string {
	join := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(foldAccents(s))), "")
	}
	base := join(firstName) + "." + join(lastName)
	if base == "." {
		return "user"
	}
	return base
}

// foldAccents strips combining marks: "Élodie Lefèvre" becomes "Elodie Lefevre".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// generateTempPassword random password with at least one letter and one digit
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 12
	}

	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
