// meta/meta.go
package meta

// CHIP_DAMAGE is the minimum per-kind damage a unit deals regardless of armor.
const CHIP_DAMAGE = 0.5

// LEVEL_BONUS_STEP is the flat bonus a commander contributes per level.
const LEVEL_BONUS_STEP = 0.01

// SPECIALTY_ATTACK_BONUS is the attack bonus of an aggressive specialty.
const SPECIALTY_ATTACK_BONUS = 0.10

// SPECIALTY_DEFENSE_BONUS is the armor bonus of a defensive specialty.
const SPECIALTY_DEFENSE_BONUS = 0.10

// ENTRENCHMENT_BONUS is the flat defender bonus for an entrenched side.
const ENTRENCHMENT_BONUS = 0.10

// DEFAULT_TICK_SECONDS is the simulation step used when the host does not pick one.
const DEFAULT_TICK_SECONDS = 0.25

// SKIRMISH_TICKS is the number of ticks recorded under the skirmish sub-phase.
const SKIRMISH_TICKS = 8

// MAX_TICKS is the tick budget after which an unresolved combat is a draw.
const MAX_TICKS = 400
