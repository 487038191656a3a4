// Package password abstracts password hashing behind a small interface
// so the algorithm stays swappable.
package password

import "golang.org/x/crypto/bcrypt"

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}

// Bcrypt implements Hasher with bcrypt. Zero Cost uses the library
// default.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

// Hash returns the bcrypt hash of plain.
func (b Bcrypt) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain matches hashed.
func (b Bcrypt) Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
