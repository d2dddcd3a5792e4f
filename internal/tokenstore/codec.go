package tokenstore

import (
	"encoding/json"
	"fmt"

	"github.com/florianilch/postbot/internal/credentials"
)

// encode serializes a token set for string-based backends.
func encode(ts credentials.TokenSet) ([]byte, error) {
	data, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("encoding token set: %w", err)
	}
	return data, nil
}

// decode parses a token set written by encode.
func decode(data []byte) (credentials.TokenSet, error) {
	var ts credentials.TokenSet
	if err := json.Unmarshal(data, &ts); err != nil {
		return credentials.TokenSet{}, fmt.Errorf("decoding token set: %w", err)
	}
	return ts, nil
}
