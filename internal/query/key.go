package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies one cached query: the operation name plus its ordered params.
// Two keys are equal only when every param is equal.
type Key struct {
	Op     string
	params []string
}

func NewKey(op string, params ...any) Key {
	encoded := make([]string, 0, len(params))
	for _, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			b = []byte(fmt.Sprintf("%q", fmt.Sprint(p)))
		}
		encoded = append(encoded, string(b))
	}
	return Key{Op: op, params: encoded}
}

func (k Key) String() string {
	return k.Op + "[" + strings.Join(k.params, ",") + "]"
}

// HasPrefix reports whether k has the same operation and starts with the params of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if k.Op != prefix.Op || len(prefix.params) > len(k.params) {
		return false
	}
	for i, p := range prefix.params {
		if k.params[i] != p {
			return false
		}
	}
	return true
}
