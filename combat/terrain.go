package combat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"warfield/meta"
)

// Hex is an axial hex coordinate.
type Hex struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func (h Hex) String() string {
	return fmt.Sprintf("(%d,%d)", h.Q, h.R)
}

// Terrain is the closed set of terrain types a hex can carry.
type Terrain int

const (
	TerrainPlains Terrain = iota
	TerrainHills
	TerrainForest
	TerrainMarsh
	TerrainMountain
)

var terrainNames = map[Terrain]string{
	TerrainPlains:   "plains",
	TerrainHills:    "hills",
	TerrainForest:   "forest",
	TerrainMarsh:    "marsh",
	TerrainMountain: "mountain",
}

var terrainIDMap = map[string]Terrain{
	"plains":   TerrainPlains,
	"hills":    TerrainHills,
	"forest":   TerrainForest,
	"marsh":    TerrainMarsh,
	"mountain": TerrainMountain,
}

func (t Terrain) String() string {
	if name, ok := terrainNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText makes terrains render as names in JSON payloads.
func (t Terrain) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Terrain) UnmarshalText(text []byte) error {
	parsed, err := ParseTerrain(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerrain maps a terrain name to its Terrain.
func ParseTerrain(name string) (Terrain, error) {
	t, ok := terrainIDMap[name]
	if !ok {
		return 0, fmt.Errorf("unknown terrain %q", name)
	}
	return t, nil
}

// TerrainModifiers are the static per-terrain percentages.
type TerrainModifiers struct {
	DefenderDefense float64
	AttackerPenalty float64
}

// GLOBAL DATA. Plains contributes nothing; everything else favors the
// defender, slows the attacker, or both.
var terrainTable = map[Terrain]TerrainModifiers{
	TerrainPlains:   {},
	TerrainHills:    {DefenderDefense: 0.20},
	TerrainForest:   {DefenderDefense: 0.10, AttackerPenalty: 0.10},
	TerrainMarsh:    {DefenderDefense: 0.05, AttackerPenalty: 0.15},
	TerrainMountain: {DefenderDefense: 0.30, AttackerPenalty: 0.20},
}

// Modifiers are the fixed combat modifiers for one pairing, computed once
// when the pairing starts and held for its lifetime.
type Modifiers struct {
	DefenderDefense float64 `json:"defenderDefense"` // terrain + entrenchment, additive
	AttackerPenalty float64 `json:"attackerPenalty"`
	Entrenchment    float64 `json:"entrenchment"`
}

// ResolveModifiers combines the terrain table with the entrenchment flag.
// Entrenchment stacks additively with the terrain bonus.
func ResolveModifiers(terrain Terrain, entrenched bool) Modifiers {
	tm := terrainTable[terrain]
	m := Modifiers{
		DefenderDefense: tm.DefenderDefense,
		AttackerPenalty: tm.AttackerPenalty,
	}
	if entrenched {
		m.Entrenchment = meta.ENTRENCHMENT_BONUS
		m.DefenderDefense += meta.ENTRENCHMENT_BONUS
	}
	return m
}

type terrainFileEntry struct {
	DefenderDefense float64 `yaml:"defender_defense"`
	AttackerPenalty float64 `yaml:"attacker_penalty"`
}

// LoadTerrainTable replaces entries of the static terrain table from a YAML
// file. Unlisted terrains keep their defaults.
func LoadTerrainTable(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read terrain table: %w", err)
	}

	var entries map[string]terrainFileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse terrain table: %w", err)
	}

	for name, entry := range entries {
		terrain, err := ParseTerrain(name)
		if err != nil {
			return fmt.Errorf("terrain table: %w", err)
		}
		terrainTable[terrain] = TerrainModifiers{
			DefenderDefense: entry.DefenderDefense,
			AttackerPenalty: entry.AttackerPenalty,
		}
	}
	return nil
}
