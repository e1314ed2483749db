package domain

import (
	"fmt"
	"math/rand/v2"
)

var (
	metadataGenders = []string{
		"male", "female", "lesbian", "gay", "bisexual", "pansexual",
		"asexual", "transgender", "non-binary", "queer",
	}
	metadataEmployment = []string{"employed", "unemployed"}
	metadataEducation  = []string{"no-formal", "primary", "secondary", "bachelors", "masters", "doctorate"}
)

// RandomMetadata returns a descriptive metadata line such as
// "female, age 34, employed, masters-educated". Used for sample data.
func RandomMetadata() string {
	return fmt.Sprintf("%s, age %d, %s, %s-educated",
		pick(metadataGenders),
		rand.IntN(100)+1,
		pick(metadataEmployment),
		pick(metadataEducation),
	)
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}
