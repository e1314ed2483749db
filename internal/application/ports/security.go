package ports

// PasswordHasher hashes and verifies passwords (Argon2id).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// KeyGenerator produces the fixed-length internal key assigned once per account.
type KeyGenerator interface {
	Generate() string
}
