// Package dockey constructs structured datastore keys for stored delimited-
// text documents, with optional namespacing.
//
// Key structure: "<__namespace__>:csvdoc:<kind>:<name>". The namespace
// fragment is wrapped in the reserved delimiter so it can be recognized when
// parsing keys back from the store.
package dockey

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Marker tags every document key produced by this package.
	Marker = "csvdoc"
	// FragmentDelimiter joins key fragments.
	FragmentDelimiter = ":"
	// ReservedNamespaceDelimiter is placed before and after the namespace fragment.
	ReservedNamespaceDelimiter = "__"
	// WildcardAnyString matches zero or more characters in scan patterns.
	WildcardAnyString = "*"

	keyMaxLength = 512 // Practical limit (avoid large keys).
)

var fragmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// InvalidKeyError reports a malformed key or key fragment.
type InvalidKeyError string

func (e InvalidKeyError) Error() string { return "dockey: invalid key: " + string(e) }

// ValidateFragment validates a single key fragment.
func ValidateFragment(fragment string) error {
	if fragment == "" {
		return InvalidKeyError("fragment must not be empty")
	}
	if strings.HasPrefix(fragment, ReservedNamespaceDelimiter) {
		return InvalidKeyError(fmt.Sprintf(
			"fragment '%s' must not start with reserved delimiter '%s'",
			fragment, ReservedNamespaceDelimiter,
		))
	}
	if !fragmentRegex.MatchString(fragment) {
		return InvalidKeyError(fmt.Sprintf("fragment '%s' contains invalid characters", fragment))
	}
	return nil
}

// Key represents a fully qualified document key.
type Key struct {
	namespace string // Without the reserved delimiters.
	kind      string // Logical document kind.
	name      string // Document name, or WildcardAnyString for match keys.
}

// New creates a document key. The namespace is optional.
func New(kind, name, namespace string) (*Key, error) {
	if err := ValidateFragment(kind); err != nil {
		return nil, err
	}
	if err := ValidateFragment(name); err != nil {
		return nil, err
	}
	if namespace != "" {
		if err := ValidateFragment(namespace); err != nil {
			return nil, err
		}
	}
	key := &Key{namespace: strings.ToLower(namespace), kind: kind, name: name}
	if len(key.StoreKey()) > keyMaxLength {
		return nil, InvalidKeyError("key exceeds maximum length")
	}
	return key, nil
}

// Match creates a wildcard key matching every document of the kind within
// the namespace.
func Match(kind, namespace string) (*Key, error) {
	if err := ValidateFragment(kind); err != nil {
		return nil, err
	}
	if namespace != "" {
		if err := ValidateFragment(namespace); err != nil {
			return nil, err
		}
	}
	return &Key{namespace: strings.ToLower(namespace), kind: kind, name: WildcardAnyString}, nil
}

// Kind returns the document kind fragment.
func (k *Key) Kind() string {
	return k.kind
}

// Name returns the document name fragment.
func (k *Key) Name() string {
	return k.name
}

// Namespace returns the namespace fragment without the reserved delimiters.
func (k *Key) Namespace() string {
	return k.namespace
}

// StoreKey returns the full datastore key string.
func (k *Key) StoreKey() string {
	fragments := make([]string, 0, 4)
	if k.namespace != "" {
		fragments = append(fragments, ReservedNamespaceDelimiter+k.namespace+ReservedNamespaceDelimiter)
	}
	fragments = append(fragments, Marker, k.kind, k.name)
	return strings.Join(fragments, FragmentDelimiter)
}

// String returns a string representation of the key.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	return k.StoreKey()
}

// Parse parses a datastore key string produced by StoreKey back into a Key.
func Parse(storeKey string) (*Key, error) {
	fragments := strings.Split(storeKey, FragmentDelimiter)
	var namespace string
	if len(fragments) > 0 &&
		strings.HasPrefix(fragments[0], ReservedNamespaceDelimiter) &&
		strings.HasSuffix(fragments[0], ReservedNamespaceDelimiter) {
		namespace = strings.TrimSuffix(
			strings.TrimPrefix(fragments[0], ReservedNamespaceDelimiter),
			ReservedNamespaceDelimiter,
		)
		fragments = fragments[1:]
	}
	if len(fragments) != 3 || fragments[0] != Marker {
		return nil, InvalidKeyError(fmt.Sprintf("'%s' is not a document key", storeKey))
	}
	return &Key{namespace: namespace, kind: fragments[1], name: fragments[2]}, nil
}
