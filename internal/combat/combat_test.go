package combat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/gamedata"
)

func catalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	return cat
}

func route(t *testing.T, cat *gamedata.Catalog, id string) gamedata.RouteDef {
	t.Helper()
	r, ok := cat.Route(id)
	require.True(t, ok, id)
	return r
}

func TestMatchupPentagon(t *testing.T) {
	for w := range gamedata.NumWeapons {
		strong, weak := 0, 0
		for e := range gamedata.NumEnemyKinds {
			switch Matchup(gamedata.WeaponKind(w), gamedata.EnemyKind(e)) {
			case strongMultiplier:
				strong++
			case weakMultiplier:
				weak++
			}
		}
		assert.Equal(t, 1, strong)
		assert.Equal(t, 1, weak)
	}
	assert.Equal(t, 1.5, Matchup(gamedata.WeaponSword, gamedata.EnemyHumanoid))
	assert.Equal(t, 0.5, Matchup(gamedata.WeaponSword, gamedata.EnemyArmored))
	assert.Equal(t, 1.0, Matchup(gamedata.WeaponSword, gamedata.EnemyBeast))
}

func TestPickPrefersMatchupOverLevel(t *testing.T) {
	sword := Weapon{Kind: gamedata.WeaponSword, Level: 1}
	spear := Weapon{Kind: gamedata.WeaponSpear, Level: 5}
	bow := Weapon{Kind: gamedata.WeaponBow, Level: 4}

	tests := []struct {
		name  string
		ws    []Weapon
		enemy gamedata.EnemyKind
		want  gamedata.WeaponKind
	}{
		{"advantaged beats stronger neutral", []Weapon{sword, spear}, gamedata.EnemyHumanoid, gamedata.WeaponSword},
		{"advantaged beats stronger neutral reversed", []Weapon{spear, sword}, gamedata.EnemyHumanoid, gamedata.WeaponSword},
		{"neutral beats resisted", []Weapon{bow, sword}, gamedata.EnemyArmored, gamedata.WeaponBow},
		{"level breaks a neutral tie", []Weapon{sword, bow}, gamedata.EnemyBeast, gamedata.WeaponBow},
		{"resisted when nothing else", []Weapon{sword}, gamedata.EnemyArmored, gamedata.WeaponSword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, dmg, ok := pick(tt.ws, tt.enemy, 1)
			require.True(t, ok)
			assert.Equal(t, tt.want, w.Kind)
			assert.InDelta(t, float64(WeaponDamage(w.Level, 1))*Matchup(w.Kind, tt.enemy), dmg, 1e-9)
		})
	}

	_, dmg, ok := pick(nil, gamedata.EnemyBeast, 3)
	assert.False(t, ok)
	assert.Equal(t, float64(UnarmedDamage(3)), dmg)
}

func TestIncomingDefenseCap(t *testing.T) {
	assert.Equal(t, 10, Incoming(10, 0))
	assert.Equal(t, 5, Incoming(10, 50))
	assert.Equal(t, 2, Incoming(10, 80))
	assert.Equal(t, 2, Incoming(10, 95))
	assert.Equal(t, 1, Incoming(1, 80))
}

func TestResolveIsDeterministic(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "forest_medium")
	lo := Loadout{
		Weapons:   []Weapon{{Kind: gamedata.WeaponSpear, Level: 2}, {Kind: gamedata.WeaponHammer, Level: 1}},
		Defense:   13,
		HeroLevel: 4,
	}

	a, err := Resolve(cat, r, lo, 1234, 40)
	require.NoError(t, err)
	b, err := Resolve(cat, r, lo, 1234, 40)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
	assert.NotEmpty(t, a.Log)
}

func TestSwordClearsFirstMeadow(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "meadow_short")
	lo := Loadout{Weapons: []Weapon{{Kind: gamedata.WeaponSword, Level: 1}}, HeroLevel: 1}

	for seed := range uint64(10) {
		out, err := Resolve(cat, r, lo, seed, 40)
		require.NoError(t, err)
		require.True(t, out.Success, strings.Join(out.Log, "\n"))
		assert.Equal(t, 3, out.WavesCleared)
		assert.Greater(t, out.FinalHP, 0)
		assert.GreaterOrEqual(t, out.Gold, r.Gold)
		assert.Equal(t, r.Loot, out.Loot)
	}
}

func TestSummonQuirkLogsMinions(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "meadow_short")
	lo := Loadout{Weapons: []Weapon{{Kind: gamedata.WeaponSword, Level: 1}}, HeroLevel: 1}
	out, err := Resolve(cat, r, lo, 3, 40)
	require.NoError(t, err)

	summons := 0
	for _, line := range out.Log {
		if strings.Contains(line, "summoned a minion") {
			summons++
		}
	}
	assert.Equal(t, 2, summons)
}

func TestUnarmedHeroFailsAndKeepsNoRouteReward(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "meadow_short")
	out, err := Resolve(cat, r, Loadout{HeroLevel: 1}, 9, 40)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, 0, out.FinalHP)
	assert.Nil(t, out.Loot)
	assert.Less(t, out.Gold, r.Gold)
}

func TestRoundCapIsALoss(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "meadow_short")
	lo := Loadout{Weapons: []Weapon{{Kind: gamedata.WeaponSword, Level: 1}}, HeroLevel: 1}
	out, err := Resolve(cat, r, lo, 1, 1)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Contains(t, out.Log[len(out.Log)-2], "outlasted")
}

func TestInvulnerableBossTakesLonger(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "caves_short")
	lo := Loadout{
		Weapons:   []Weapon{{Kind: gamedata.WeaponBow, Level: 4}, {Kind: gamedata.WeaponHammer, Level: 4}},
		Defense:   40,
		HeroLevel: 10,
	}
	out, err := Resolve(cat, r, lo, 5, 40)
	require.NoError(t, err)
	found := false
	for _, line := range out.Log {
		if strings.Contains(line, "invulnerable") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestChooseLoadoutPrefersAdvantage(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "caves_short") // flyers, armored and a flying boss
	owned := map[gamedata.WeaponKind]int{
		gamedata.WeaponSword:  1,
		gamedata.WeaponBow:    1,
		gamedata.WeaponHammer: 1,
		gamedata.WeaponStaff:  1,
	}
	ws := ChooseLoadout(cat, r, owned, 5)
	require.Len(t, ws, 2)
	kinds := []gamedata.WeaponKind{ws[0].Kind, ws[1].Kind}
	assert.Contains(t, kinds, gamedata.WeaponBow)
	assert.Contains(t, kinds, gamedata.WeaponHammer)

	assert.Nil(t, ChooseLoadout(cat, r, nil, 5))
	one := ChooseLoadout(cat, r, map[gamedata.WeaponKind]int{gamedata.WeaponSpear: 2}, 5)
	assert.Equal(t, []Weapon{{Kind: gamedata.WeaponSpear, Level: 2}}, one)
}

func TestWinRate(t *testing.T) {
	cat := catalog(t)
	r := route(t, cat, "meadow_short")
	lo := Loadout{Weapons: []Weapon{{Kind: gamedata.WeaponSword, Level: 1}}, HeroLevel: 1}
	assert.Equal(t, 1.0, WinRate(cat, r, lo, []uint64{1, 2, 3}, 40))
	assert.Equal(t, 0.0, WinRate(cat, r, Loadout{HeroLevel: 1}, []uint64{1, 2, 3}, 40))
}
