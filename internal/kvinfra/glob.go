package kvinfra

import "fmt"

// Match reports whether key matches pattern. The pattern syntax is the Redis
// KEYS/SCAN glob subset: '*' matches any run of characters, '?' matches
// exactly one character, and '\' escapes the character after it. Unlike
// path.Match, '*' crosses '/', so URL-shaped cache keys match their
// namespace patterns the same way they would server-side in Redis. Both
// adapters go through the same syntax check so a bad pattern fails
// identically regardless of backend.
func Match(pattern, key string) (bool, error) {
	if err := CheckPattern(pattern); err != nil {
		return false, err
	}
	return match(pattern, key), nil
}

// CheckPattern validates pattern syntax without matching anything.
func CheckPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' {
			if i == len(pattern)-1 {
				return fmt.Errorf("%w: trailing escape in %q", ErrBadPattern, pattern)
			}
			i++
		}
	}
	return nil
}

func match(p, s string) bool {
	for len(p) > 0 {
		if p[0] == '*' {
			for len(p) > 0 && p[0] == '*' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if match(p, s[i:]) {
					return true
				}
			}
			return false
		}

		if p[0] == '?' {
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
			continue
		}

		c := p[0]
		if c == '\\' {
			p = p[1:]
			c = p[0]
		}
		if len(s) == 0 || s[0] != c {
			return false
		}
		p, s = p[1:], s[1:]
	}
	return len(s) == 0
}
