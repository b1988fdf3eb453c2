package bsonx

import "fmt"

// Char is a single Unicode code point. It encodes as a one-character string
// and refuses to decode from anything longer.
type Char rune

func (c Char) MarshalBson() (any, error) {
	return string(c), nil
}

func (c *Char) UnmarshalBson(value any) error {
	s, ok := value.(string)
	if !ok {
		return invalidVariant("string", value)
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return NewDecodeError(fmt.Sprintf("invalid value, could not coerce `%s` into a char", s), value)
	}
	*c = Char(runes[0])
	return nil
}
