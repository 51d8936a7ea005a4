package hash

// Hash creates and checks digests of secret strings.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
