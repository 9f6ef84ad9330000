package gnomes

import (
	"fmt"

	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/state"
)

var firstNames = []string{
	"Bramble", "Pip", "Tansy", "Moss", "Clover", "Fennel", "Burdock", "Sorrel",
	"Thistle", "Juniper", "Nettle", "Rowan", "Yarrow", "Hazel", "Sage", "Wick",
}

// Spawner names and creates rescued gnomes.
type Spawner struct {
	rng *entropy.Source
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng *entropy.Source) *Spawner {
	return &Spawner{rng: rng}
}

// Rescue creates a level-1 unassigned gnome with the given id.
func (sp *Spawner) Rescue(id int) state.Gnome {
	name := firstNames[sp.rng.IntN(len(firstNames))]
	return state.Gnome{
		ID:    id,
		Name:  fmt.Sprintf("%s #%d", name, id),
		Level: 1,
		Task:  "idle",
	}
}
