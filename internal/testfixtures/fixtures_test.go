package testfixtures

import (
	"testing"
	"time"

	"github.com/example/scanventory/internal/persistence"
)

func TestReservationFixtureDefaultsAndOptions(t *testing.T) {
	first := NewReservation()
	second := NewReservation()
	if first.ID == second.ID {
		t.Fatalf("expected unique IDs, got %d twice", first.ID)
	}
	if !first.Start.Equal(ReferenceTime()) || first.Tool.Code != "tool0001" {
		t.Fatalf("unexpected defaults %+v", first)
	}

	end := ReferenceTime().Add(72 * time.Hour)
	custom := NewReservation(
		WithReservationID(99),
		WithReservationTool("tool0002", "Saw"),
		WithReservationRange(ReferenceTime(), end),
		WithReservationNote("site"),
	)
	if custom.ID != 99 || custom.Tool.Name != "Saw" || !custom.End.Equal(end) || custom.Note != "site" {
		t.Fatalf("options not applied: %+v", custom)
	}
}

func TestJournalFixtureOptions(t *testing.T) {
	entry := NewJournalEntry(WithJournalKind("return"), WithJournalFailure("tool not borrowed"))
	if entry.Kind != "return" || entry.Outcome != persistence.JournalOutcomeFailure || entry.Message != "tool not borrowed" {
		t.Fatalf("options not applied: %+v", entry)
	}
	if entry.ID == "" || entry.ID == NewJournalEntry().ID {
		t.Fatalf("expected unique non-empty IDs")
	}
}
