// Package gamedata provides the read-only balance tables the simulation reads
// from and the closed enums that external string identifiers map onto.
package gamedata

import (
	"errors"
	"fmt"
)

// ErrUnknownID is returned when an identifier does not name a known row or enum value.
var ErrUnknownID = errors.New("unknown id")

// CropKind enumerates plantable crops.
type CropKind uint8

const (
	CropCarrot CropKind = iota
	CropRadish
	CropPotato
	CropCabbage
	CropCorn
	CropPumpkin
)

// NumCrops is the total number of crop kinds.
const NumCrops = 6

var cropNames = [NumCrops]string{"carrot", "radish", "potato", "cabbage", "corn", "pumpkin"}

func (k CropKind) String() string {
	if int(k) < len(cropNames) {
		return cropNames[k]
	}
	return fmt.Sprintf("crop(%d)", uint8(k))
}

// ParseCrop maps a static-data identifier to a CropKind.
func ParseCrop(s string) (CropKind, error) {
	for i, name := range cropNames {
		if name == s {
			return CropKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: crop %q", ErrUnknownID, s)
}

func (k CropKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CropKind) UnmarshalText(b []byte) error {
	v, err := ParseCrop(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// MaterialKind enumerates storable materials.
type MaterialKind uint8

const (
	MaterialStone MaterialKind = iota
	MaterialWood
	MaterialCoal
	MaterialCopper
	MaterialIron
	MaterialSilver
	MaterialCrystal
)

// NumMaterials is the total number of material kinds.
const NumMaterials = 7

var materialNames = [NumMaterials]string{"stone", "wood", "coal", "copper", "iron", "silver", "crystal"}

func (k MaterialKind) String() string {
	if int(k) < len(materialNames) {
		return materialNames[k]
	}
	return fmt.Sprintf("material(%d)", uint8(k))
}

// ParseMaterial maps a static-data identifier to a MaterialKind.
func ParseMaterial(s string) (MaterialKind, error) {
	for i, name := range materialNames {
		if name == s {
			return MaterialKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: material %q", ErrUnknownID, s)
}

func (k MaterialKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *MaterialKind) UnmarshalText(b []byte) error {
	v, err := ParseMaterial(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// WeaponKind enumerates the five weapon families of the advantage pentagon.
type WeaponKind uint8

const (
	WeaponSword WeaponKind = iota
	WeaponSpear
	WeaponBow
	WeaponHammer
	WeaponStaff
)

// NumWeapons is the total number of weapon families.
const NumWeapons = 5

var weaponNames = [NumWeapons]string{"sword", "spear", "bow", "hammer", "staff"}

func (k WeaponKind) String() string {
	if int(k) < len(weaponNames) {
		return weaponNames[k]
	}
	return fmt.Sprintf("weapon(%d)", uint8(k))
}

// ParseWeapon maps a static-data identifier to a WeaponKind.
func ParseWeapon(s string) (WeaponKind, error) {
	for i, name := range weaponNames {
		if name == s {
			return WeaponKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: weapon %q", ErrUnknownID, s)
}

func (k WeaponKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *WeaponKind) UnmarshalText(b []byte) error {
	v, err := ParseWeapon(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// EnemyKind enumerates enemy types. Index i is the kind weapon i is strong against.
type EnemyKind uint8

const (
	EnemyHumanoid EnemyKind = iota
	EnemyBeast
	EnemyFlyer
	EnemyArmored
	EnemyArcane
)

// NumEnemyKinds is the total number of enemy types.
const NumEnemyKinds = 5

var enemyNames = [NumEnemyKinds]string{"humanoid", "beast", "flyer", "armored", "arcane"}

func (k EnemyKind) String() string {
	if int(k) < len(enemyNames) {
		return enemyNames[k]
	}
	return fmt.Sprintf("enemy(%d)", uint8(k))
}

// ParseEnemyKind maps a static-data identifier to an EnemyKind.
func ParseEnemyKind(s string) (EnemyKind, error) {
	for i, name := range enemyNames {
		if name == s {
			return EnemyKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: enemy kind %q", ErrUnknownID, s)
}

func (k EnemyKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EnemyKind) UnmarshalText(b []byte) error {
	v, err := ParseEnemyKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ScreenID enumerates the navigable game screens.
type ScreenID uint8

const (
	ScreenFarm ScreenID = iota
	ScreenTown
	ScreenTower
	ScreenAdventure
	ScreenForge
	ScreenMine
)

// NumScreens is the total number of screens.
const NumScreens = 6

var screenNames = [NumScreens]string{"farm", "town", "tower", "adventure", "forge", "mine"}

func (s ScreenID) String() string {
	if int(s) < len(screenNames) {
		return screenNames[s]
	}
	return fmt.Sprintf("screen(%d)", uint8(s))
}

// ParseScreen maps a static-data identifier to a ScreenID.
func ParseScreen(s string) (ScreenID, error) {
	for i, name := range screenNames {
		if name == s {
			return ScreenID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: screen %q", ErrUnknownID, s)
}

// AllScreens lists every screen in declaration order.
func AllScreens() []ScreenID {
	out := make([]ScreenID, NumScreens)
	for i := range out {
		out[i] = ScreenID(i)
	}
	return out
}

func (s ScreenID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ScreenID) UnmarshalText(b []byte) error {
	v, err := ParseScreen(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
