package cache

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"summoner", NewKey("summoner", "na1", "Faker"), "summoner:na1:Faker"},
		{"match", NewKey("match", "americas", "NA1_1234"), "match:americas:NA1_1234"},
		{"category only", NewKey("versions"), "versions"},
		{"many discriminators", NewKey("league", "euw1", "challenger", "RANKED_SOLO_5x5"), "league:euw1:challenger:RANKED_SOLO_5x5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_NoCollisionAcrossCategories(t *testing.T) {
	a := NewKey("summoner", "na1", "X").String()
	b := NewKey("match", "na1", "X").String()
	if a == b {
		t.Errorf("categories collide: %q", a)
	}
}

func TestKey_NoCollisionAcrossRegions(t *testing.T) {
	a := NewKey("summoner", "na1", "X").String()
	b := NewKey("summoner", "euw1", "X").String()
	if a == b {
		t.Errorf("regions collide: %q", a)
	}
}
