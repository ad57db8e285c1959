// internal/game/names.go
package game

import "strings"

var (
	nameAdjectives = []string{
		"brave", "calm", "clever", "eager", "fancy", "gentle", "happy", "jolly",
		"kind", "lively", "lucky", "mighty", "nimble", "proud", "quick", "quiet",
		"rapid", "shiny", "silly", "sneaky", "swift", "witty", "zany", "bold",
	}
	nameColors = []string{
		"amber", "azure", "coral", "crimson", "cyan", "gold", "green", "indigo",
		"ivory", "jade", "lime", "magenta", "olive", "orange", "pink", "plum",
		"purple", "red", "salmon", "silver", "teal", "violet", "white", "yellow",
	}
	nameAnimals = []string{
		"badger", "beaver", "camel", "cheetah", "crane", "dolphin", "eagle", "falcon",
		"ferret", "gecko", "heron", "koala", "lemur", "lynx", "marmot", "otter",
		"panda", "parrot", "puffin", "rabbit", "raven", "salmon", "tiger", "walrus",
	}
)

// GenerateName returns an adjective-color-animal game name such as "brave-green-dolphin".
func GenerateName(rng RNG) string {
	if rng == nil {
		rng = stdRNG{}
	}
	pick := func(words []string) string { return words[rng.IntN(len(words))] }
	return strings.Join([]string{pick(nameAdjectives), pick(nameColors), pick(nameAnimals)}, "-")
}
