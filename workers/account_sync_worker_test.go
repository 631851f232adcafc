package workers

import (
	"testing"
)

// TestGuildAccountFromProfileFoldsLookupKeys ensures both lookup keys are
// folded, so an accented in-game name like "Ragnarök" matches the folded
// participant key "ragnarok".
func TestGuildAccountFromProfileFoldsLookupKeys(t *testing.T) {
	character := "Ragnarök"
	local := guildAccountFromProfile(MirroredAccountFromProfile{
		ExternalID:    "u1",
		Username:      "ÉLODIE",
		CharacterName: &character,
	})
	if local.UsernameKey != "elodie" {
		t.Fatalf("expected username key %q, got %q", "elodie", local.UsernameKey)
	}
	if local.CharacterNameKey != "ragnarok" {
		t.Fatalf("expected character name key %q, got %q", "ragnarok", local.CharacterNameKey)
	}
	if local.CharacterName == nil || *local.CharacterName != character {
		t.Fatalf("expected original character name kept, got %v", local.CharacterName)
	}
}

// TestGuildAccountFromProfileWithoutCharacterName leaves the key empty so it
// can never match a folded participant name.
func TestGuildAccountFromProfileWithoutCharacterName(t *testing.T) {
	local := guildAccountFromProfile(MirroredAccountFromProfile{
		ExternalID: "u2",
		Username:   "Borin",
	})
	if local.CharacterNameKey != "" {
		t.Fatalf("expected empty character name key, got %q", local.CharacterNameKey)
	}
}
