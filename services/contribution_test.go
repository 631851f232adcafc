package services

import (
	"testing"
	"time"

	"boss-tracker-system/models"
)

func spawnWithParticipants(at time.Time, names ...string) models.SpawnEvent {
	ev := models.SpawnEvent{SpawnTime: at}
	for i, n := range names {
		ev.Participants = append(ev.Participants, models.SpawnParticipant{Name: n, SortOrder: i})
	}
	return ev
}

// TestFoldMemberNameNormalizes collapses case, accents and whitespace so the
// same player always lands on one ledger row.
func TestFoldMemberNameNormalizes(t *testing.T) {
	cases := []struct{ in, want string }{
		{"DragonSlayer", "dragonslayer"},
		{"  Dragon   Slayer  ", "dragon slayer"},
		{"Ragnarök", "ragnarok"},
		{"ÉLODIE", "elodie"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := FoldMemberName(tc.in); got != tc.want {
			t.Fatalf("FoldMemberName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestTallyParticipantsCountsAppearances aggregates counts and the most recent
// spawn date per member across a history.
func TestTallyParticipantsCountsAppearances(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []models.SpawnEvent{
		spawnWithParticipants(base, "Aria", "Borin"),
		spawnWithParticipants(base.Add(time.Hour), "Aria"),
		spawnWithParticipants(base.Add(2*time.Hour), "Aria", "Cale"),
	}

	tally := TallyParticipants(events)
	if len(tally) != 3 {
		t.Fatalf("expected 3 members in tally, got %d", len(tally))
	}
	aria := tally["aria"]
	if aria.Count != 3 {
		t.Fatalf("expected aria on 3 events, got %d", aria.Count)
	}
	if !aria.LastEventDate.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("expected aria last seen at the third event, got %v", aria.LastEventDate)
	}
	if tally["borin"].Count != 1 || tally["cale"].Count != 1 {
		t.Fatalf("expected borin and cale to count once, got %+v", tally)
	}
}

// TestTallyParticipantsMergesSpellings folds different spellings of one name
// into a single entry and keeps the first spelling seen for display.
func TestTallyParticipantsMergesSpellings(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []models.SpawnEvent{
		spawnWithParticipants(base, "Ragnarök"),
		spawnWithParticipants(base.Add(time.Hour), "RAGNAROK"),
		spawnWithParticipants(base.Add(2*time.Hour), "ragnarok"),
	}

	tally := TallyParticipants(events)
	if len(tally) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(tally))
	}
	entry := tally["ragnarok"]
	if entry.Count != 3 {
		t.Fatalf("expected merged count 3, got %d", entry.Count)
	}
	if entry.Name != "Ragnarök" {
		t.Fatalf("expected first spelling kept, got %q", entry.Name)
	}
}

// TestTallyParticipantsSkipsBlankNames drops unattributable entries instead of
// crediting an empty member.
func TestTallyParticipantsSkipsBlankNames(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tally := TallyParticipants([]models.SpawnEvent{
		spawnWithParticipants(base, "", "   ", "Aria"),
	})
	if len(tally) != 1 {
		t.Fatalf("expected only named participants counted, got %+v", tally)
	}
}

// TestTallyParticipantsOrderIndependent gives the same totals regardless of
// event order.
func TestTallyParticipantsOrderIndependent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	forward := []models.SpawnEvent{
		spawnWithParticipants(base, "Aria"),
		spawnWithParticipants(base.Add(time.Hour), "Aria"),
	}
	reversed := []models.SpawnEvent{forward[1], forward[0]}

	a := TallyParticipants(forward)["aria"]
	b := TallyParticipants(reversed)["aria"]
	if a.Count != b.Count || !a.LastEventDate.Equal(b.LastEventDate) {
		t.Fatalf("expected order-independent tally, got %+v vs %+v", a, b)
	}
}

// TestNewContributionRowStartsAtOne ensures a member's first participation
// creates their row at score 1 with the event date recorded.
func TestNewContributionRowStartsAtOne(t *testing.T) {
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	row := newContributionRow("g1", "Aria", "aria", nil, &date)
	if row.ContributionScore != 1 {
		t.Fatalf("expected first participation at score 1, got %d", row.ContributionScore)
	}
	if row.LastEventDate == nil || !row.LastEventDate.Equal(date) {
		t.Fatalf("expected last_event_date %v, got %v", date, row.LastEventDate)
	}
	if row.GuildID != "g1" || row.MemberName != "Aria" || row.MemberKey != "aria" {
		t.Fatalf("unexpected row identity: %+v", row)
	}
}

// TestApplyIncrementSequential ensures two participations yield score 2 with
// last_event_date at the later of the two dates.
func TestApplyIncrementSequential(t *testing.T) {
	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	row := newContributionRow("g1", "Aria", "aria", nil, &first)

	applyIncrement(&row, nil, &second)

	if row.ContributionScore != 2 {
		t.Fatalf("expected score 2 after second participation, got %d", row.ContributionScore)
	}
	if row.LastEventDate == nil || !row.LastEventDate.Equal(second) {
		t.Fatalf("expected last_event_date %v, got %v", second, row.LastEventDate)
	}
}

// TestApplyIncrementKeepsLatestDate bumps the score for a backdated report
// without moving last_event_date backwards.
func TestApplyIncrementKeepsLatestDate(t *testing.T) {
	latest := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := latest.Add(-24 * time.Hour)
	row := newContributionRow("g1", "Aria", "aria", nil, &latest)

	applyIncrement(&row, nil, &earlier)

	if row.ContributionScore != 2 {
		t.Fatalf("expected score 2, got %d", row.ContributionScore)
	}
	if row.LastEventDate == nil || !row.LastEventDate.Equal(latest) {
		t.Fatalf("expected last_event_date to stay %v, got %v", latest, row.LastEventDate)
	}
}

// TestApplyIncrementLinksAccountOnceKnown fills in the account link when a
// later participation resolves the member, and never clears an existing one.
func TestApplyIncrementLinksAccountOnceKnown(t *testing.T) {
	row := newContributionRow("g1", "Aria", "aria", nil, nil)
	id := "acct-1"

	applyIncrement(&row, &id, nil)
	if row.MemberID == nil || *row.MemberID != id {
		t.Fatalf("expected member_id linked, got %v", row.MemberID)
	}

	applyIncrement(&row, nil, nil)
	if row.MemberID == nil || *row.MemberID != id {
		t.Fatalf("expected member_id kept, got %v", row.MemberID)
	}
	if row.ContributionScore != 3 {
		t.Fatalf("expected score 3 after three participations, got %d", row.ContributionScore)
	}
}

// TestTitleMemberNameLeavesMixedCaseAlone only title-cases fully lowercase
// input, preserving deliberate capitalization like "McCoy".
func TestTitleMemberNameLeavesMixedCaseAlone(t *testing.T) {
	if got := TitleMemberName("dragonslayer"); got != "Dragonslayer" {
		t.Fatalf("expected lowercase input title-cased, got %q", got)
	}
	if got := TitleMemberName("McCoy"); got != "McCoy" {
		t.Fatalf("expected mixed case preserved, got %q", got)
	}
}
