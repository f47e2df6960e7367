package cache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPlaceholder is returned if a key or prefix template contains a malformed
// placeholder or references a parameter that was not given.
var ErrInvalidPlaceholder = errors.New("cache: invalid placeholder")

// CacheKey describes an entry of the cache.
//
// Key and Prefixes are templates with positional placeholders ({0}, {1}, ...). They are
// filled in by Create. Literal braces are written as {{ and }}.
type CacheKey struct {
	Key       string
	Prefixes  []string
	CacheTime uint64 // lifetime in writes of the store, 0 = entry is never stored
}

// NewCacheKey creates a new key template. Empty prefixes are dropped.
func NewCacheKey(key string, prefixes ...string) CacheKey {
	k := CacheKey{Key: key, CacheTime: DefaultCacheTime}
	for _, p := range prefixes {
		if p != "" {
			k.Prefixes = append(k.Prefixes, p)
		}
	}
	return k
}

// Create returns a copy of the key with all placeholders of Key and Prefixes replaced
// by params. Parameters are used as given, see KeyBuilder for normalised parameters.
// The template itself is left untouched. Without params the copy is returned as is.
func (k CacheKey) Create(params ...any) (CacheKey, error) {
	out := CacheKey{
		Key:       k.Key,
		Prefixes:  append([]string(nil), k.Prefixes...),
		CacheTime: k.CacheTime,
	}
	if len(params) == 0 {
		return out, nil
	}

	args := make([]string, len(params))
	for i, p := range params {
		args[i] = fmt.Sprint(p)
	}

	var err error
	if out.Key, err = format(out.Key, args); err != nil {
		return CacheKey{}, err
	}
	for i := range out.Prefixes {
		if out.Prefixes[i], err = format(out.Prefixes[i], args); err != nil {
			return CacheKey{}, err
		}
	}
	return out, nil
}

// String returns the key
func (k CacheKey) String() string {
	return k.Key
}

// format replaces {n} in tmpl with args[n]
func format(tmpl string, args []string) (string, error) {
	if !strings.ContainsAny(tmpl, "{}") {
		return tmpl, nil
	}

	var sb strings.Builder
	sb.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			sb.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			sb.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' in %q", ErrInvalidPlaceholder, tmpl)
			}
			n, err := strconv.Atoi(tmpl[i+1 : i+end])
			if err != nil || n < 0 {
				return "", fmt.Errorf("%w: %q in %q", ErrInvalidPlaceholder, tmpl[i:i+end+1], tmpl)
			}
			if n >= len(args) {
				return "", fmt.Errorf("%w: {%d} but only %d parameters in %q", ErrInvalidPlaceholder, n, len(args), tmpl)
			}
			sb.WriteString(args[n])
			i += end
		case c == '}':
			return "", fmt.Errorf("%w: unmatched '}' in %q", ErrInvalidPlaceholder, tmpl)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}
