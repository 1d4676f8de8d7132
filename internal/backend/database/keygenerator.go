package database

import "github.com/google/uuid"

// GenerateID returns a random RFC 4122 version 4 identifier. Photo ids double
// as image file names, so they only contain hex digits and dashes.
func GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
