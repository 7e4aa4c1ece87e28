package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a credential at the given cost. Citizen and
// officer accounts both store hashes produced here.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a plaintext credential against its stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
