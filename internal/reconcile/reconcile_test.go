package reconcile

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch/internal/domain"
)

var (
	jan1  = civil.Date{Year: 2024, Month: 1, Day: 1}
	feb1  = civil.Date{Year: 2024, Month: 2, Day: 1}
	today = civil.Date{Year: 2024, Month: 3, Day: 15}
)

func posting(id string) domain.Posting {
	return domain.Posting{Identifier: id, Source: "Itaú", Title: "Analista " + id}
}

func active(id string, opened civil.Date) domain.Record {
	return domain.Record{Identifier: id, Source: "Itaú", Title: "Analista " + id, OpenedOn: opened, Status: domain.StatusActive}
}

func closed(id string, opened, closedOn civil.Date) domain.Record {
	r := active(id, opened)
	r.Status = domain.StatusClosed
	r.ClosedOn = closedOn
	return r
}

func ids(recs []domain.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Identifier)
	}
	return out
}

func byID(t *testing.T, recs []domain.Record, id string) domain.Record {
	t.Helper()
	for _, r := range recs {
		if r.Identifier == id {
			return r
		}
	}
	t.Fatalf("record %s not found", id)
	return domain.Record{}
}

func TestReconcile_EmptyHistory(t *testing.T) {
	res := Reconcile(nil, []domain.Posting{posting("A"), posting("B")}, today, Options{})

	require.Len(t, res.History, 2)
	for _, r := range res.History {
		assert.Equal(t, domain.StatusActive, r.Status)
		assert.Equal(t, today, r.OpenedOn)
		assert.False(t, domain.HasDate(r.ClosedOn))
	}
	assert.Equal(t, []string{"A", "B"}, ids(res.Delta))
	assert.Equal(t, []string{"A", "B"}, ids(res.Opened))
	assert.Empty(t, res.Closed)
}

func TestReconcile_EmptySnapshotClosesEverything(t *testing.T) {
	res := Reconcile([]domain.Record{active("A", jan1)}, nil, today, Options{})

	require.Len(t, res.History, 1)
	a := res.History[0]
	assert.Equal(t, domain.StatusClosed, a.Status)
	assert.Equal(t, today, a.ClosedOn)
	assert.Equal(t, jan1, a.OpenedOn)
	assert.Empty(t, res.Delta)
	assert.Equal(t, []string{"A"}, ids(res.Closed))
}

func TestReconcile_Reopen(t *testing.T) {
	res := Reconcile([]domain.Record{closed("A", jan1, jan1)}, []domain.Posting{posting("A")}, today, Options{})

	a := byID(t, res.History, "A")
	assert.Equal(t, domain.StatusReopened, a.Status)
	assert.False(t, domain.HasDate(a.ClosedOn))
	assert.Equal(t, today, a.OpenedOn)
	assert.Equal(t, []string{"A"}, ids(res.Delta))
	assert.Equal(t, []string{"A"}, ids(res.Reopened))
	assert.Empty(t, res.Opened)
}

func TestReconcile_ReopenPreservePolicy(t *testing.T) {
	res := Reconcile([]domain.Record{closed("A", jan1, feb1)}, []domain.Posting{posting("A")}, today,
		Options{ReopenPolicy: PreserveOpenedOn})

	a := byID(t, res.History, "A")
	assert.Equal(t, domain.StatusReopened, a.Status)
	assert.Equal(t, jan1, a.OpenedOn)
}

func TestReconcile_StillOpenIsUnchanged(t *testing.T) {
	hist := []domain.Record{active("A", jan1)}
	res := Reconcile(hist, []domain.Posting{posting("A")}, today, Options{})

	assert.Equal(t, hist, res.History)
	assert.Empty(t, res.Delta)
	assert.Empty(t, res.Closed)
}

func TestReconcile_ReopenedStaysReopened(t *testing.T) {
	r := active("A", feb1)
	r.Status = domain.StatusReopened
	res := Reconcile([]domain.Record{r}, []domain.Posting{posting("A")}, today, Options{})

	assert.Equal(t, []domain.Record{r}, res.History)
	assert.Empty(t, res.Delta)
}

func TestReconcile_ClosedAndUnobservedPassesThrough(t *testing.T) {
	c := closed("A", jan1, feb1)
	res := Reconcile([]domain.Record{c}, []domain.Posting{posting("B")}, today, Options{})

	assert.Equal(t, c, byID(t, res.History, "A"))
	assert.Equal(t, []string{"B"}, ids(res.Delta))
}

func TestReconcile_Idempotent(t *testing.T) {
	hist := []domain.Record{active("A", jan1), closed("B", jan1, feb1), active("C", feb1)}
	snap := []domain.Posting{posting("A"), posting("B"), posting("D")}

	first := Reconcile(hist, snap, today, Options{})
	second := Reconcile(first.History, snap, today, Options{})

	assert.Equal(t, first.History, second.History)
	assert.Empty(t, second.Delta)
	assert.Empty(t, second.Closed)
}

func TestReconcile_MixedRun(t *testing.T) {
	hist := []domain.Record{
		active("A", jan1),       // still listed
		active("B", jan1),       // disappears
		closed("C", jan1, feb1), // comes back
		closed("D", jan1, feb1), // stays closed
	}
	snap := []domain.Posting{posting("E"), posting("A"), posting("C")}

	res := Reconcile(hist, snap, today, Options{})

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, ids(res.History))
	assert.Equal(t, []string{"E", "C"}, ids(res.Delta))
	assert.Equal(t, []string{"B"}, ids(res.Closed))
	assert.Equal(t, domain.StatusActive, byID(t, res.History, "A").Status)
	assert.Equal(t, domain.StatusClosed, byID(t, res.History, "B").Status)
	assert.Equal(t, today, byID(t, res.History, "B").ClosedOn)
	assert.Equal(t, domain.StatusReopened, byID(t, res.History, "C").Status)
	assert.Equal(t, feb1, byID(t, res.History, "D").ClosedOn)
}

func TestReconcile_DeltaNeverContainsStillOpen(t *testing.T) {
	hist := []domain.Record{active("A", jan1)}
	r := active("B", feb1)
	r.Status = domain.StatusReopened
	hist = append(hist, r)

	res := Reconcile(hist, []domain.Posting{posting("A"), posting("B"), posting("C")}, today, Options{})
	assert.Equal(t, []string{"C"}, ids(res.Delta))
}

func TestReconcile_SnapshotDuplicatesKeepFirst(t *testing.T) {
	first := domain.Posting{Identifier: "A", Source: "Itaú", Title: "First"}
	second := domain.Posting{Identifier: "A", Source: "Itaú", Title: "Second"}

	res := Reconcile(nil, []domain.Posting{first, second}, today, Options{})

	require.Len(t, res.History, 1)
	assert.Equal(t, "First", res.History[0].Title)
	assert.Equal(t, []domain.Posting{second}, res.DuplicateSnapshot)
}

func TestReconcile_RejectsMissingIdentifier(t *testing.T) {
	res := Reconcile(nil, []domain.Posting{{Title: "no link"}, posting("A"), {Identifier: "  "}}, today, Options{})

	assert.Equal(t, []string{"A"}, ids(res.History))
	assert.Len(t, res.Rejected, 2)
}

func TestReconcile_HistoryDuplicatesDropped(t *testing.T) {
	hist := []domain.Record{active("A", jan1), closed("A", jan1, feb1)}
	res := Reconcile(hist, []domain.Posting{posting("A")}, today, Options{})

	require.Len(t, res.History, 1)
	assert.Equal(t, domain.StatusActive, res.History[0].Status)
	assert.Len(t, res.DuplicateHistory, 1)
	assert.Empty(t, res.Delta)
}

func TestReconcile_SuppressClosures(t *testing.T) {
	hist := []domain.Record{active("A", jan1), active("B", jan1)}
	res := Reconcile(hist, nil, today, Options{SuppressClosures: true})

	assert.Equal(t, hist, res.History)
	assert.Empty(t, res.Closed)
	assert.Equal(t, []string{"A", "B"}, ids(res.Suppressed))
}

func TestReconcile_ProtectedSources(t *testing.T) {
	a := active("A", jan1)
	b := active("B", jan1)
	b.Source = "OLX"

	res := Reconcile([]domain.Record{a, b}, nil, today, Options{ProtectedSources: map[string]bool{"OLX": true}})

	assert.Equal(t, domain.StatusClosed, byID(t, res.History, "A").Status)
	assert.Equal(t, domain.StatusActive, byID(t, res.History, "B").Status)
	assert.Equal(t, []string{"B"}, ids(res.Suppressed))
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	hist := []domain.Record{active("A", jan1), closed("B", jan1, feb1)}
	snapshotCopy := append([]domain.Record(nil), hist...)

	_ = Reconcile(hist, []domain.Posting{posting("B")}, today, Options{})
	assert.Equal(t, snapshotCopy, hist)
}

func TestReconcile_NoDuplicateIdentifiers(t *testing.T) {
	hist := []domain.Record{active("A", jan1), closed("B", jan1, feb1), active("A", feb1)}
	snap := []domain.Posting{posting("B"), posting("C"), posting("C"), posting("A")}

	res := Reconcile(hist, snap, today, Options{})
	seen := map[string]int{}
	for _, r := range res.History {
		seen[r.Identifier]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	for _, r := range res.History {
		assert.NoError(t, r.Validate())
	}
}

func TestClosureCandidates(t *testing.T) {
	hist := []domain.Record{active("A", jan1), active("B", jan1), closed("C", jan1, feb1)}
	got := ClosureCandidates(hist, []domain.Posting{posting("A")})
	assert.Equal(t, []string{"B"}, ids(got))
}

func TestParseReopenPolicy(t *testing.T) {
	p, ok := ParseReopenPolicy("")
	assert.True(t, ok)
	assert.Equal(t, ResetOpenedOn, p)

	p, ok = ParseReopenPolicy("Preserve")
	assert.True(t, ok)
	assert.Equal(t, PreserveOpenedOn, p)

	_, ok = ParseReopenPolicy("sometimes")
	assert.False(t, ok)
}
