package testutil

// Env is a fake environment for code that takes a getenv function.
type Env map[string]string

// Getenv returns the value for key, or "" when unset.
func (e Env) Getenv(key string) string {
	return e[key]
}
