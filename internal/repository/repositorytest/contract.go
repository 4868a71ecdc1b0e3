// Package repositorytest holds the behaviour every repository.Repository
// implementation must share. Backends call Run from their own tests.
package repositorytest

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookkeeper/internal/log"
	"bookkeeper/internal/repository"
)

// Context returns a background context whose logger drops every record.
func Context() context.Context {
	return log.NewContext(context.Background(), log.Discard())
}

// Sample exercises every supported field type plus a nullable reference.
type Sample struct {
	PK    int64
	Count int64
	Ratio float64
	Label string
	At    time.Time
	Span  time.Duration
	Ref   int64
}

// SampleSchema describes Sample.
func SampleSchema() repository.Schema[Sample] {
	return repository.Schema[Sample]{
		Name:  "Sample",
		PK:    func(s Sample) int64 { return s.PK },
		SetPK: func(s *Sample, pk int64) { s.PK = pk },
		Fields: []repository.Field[Sample]{
			{
				Name: "count", Type: repository.Integer,
				Get: func(s Sample) any { return s.Count },
				Set: func(s *Sample, v any) { s.Count = v.(int64) },
			},
			{
				Name: "ratio", Type: repository.Float,
				Get: func(s Sample) any { return s.Ratio },
				Set: func(s *Sample, v any) { s.Ratio = v.(float64) },
			},
			{
				Name: "label", Type: repository.Text,
				Get: func(s Sample) any { return s.Label },
				Set: func(s *Sample, v any) { s.Label = v.(string) },
			},
			{
				Name: "at", Type: repository.Timestamp,
				Get: func(s Sample) any { return s.At },
				Set: func(s *Sample, v any) { s.At = v.(time.Time) },
			},
			{
				Name: "span", Type: repository.Duration,
				Get: func(s Sample) any { return s.Span },
				Set: func(s *Sample, v any) { s.Span = v.(time.Duration) },
			},
			{
				Name: "ref", Type: repository.Integer, Nullable: true,
				Get: func(s Sample) any { return s.Ref },
				Set: func(s *Sample, v any) { s.Ref = v.(int64) },
			},
		},
	}
}

// Factory returns an empty repository for Sample and a Transactor covering it.
type Factory func(t *testing.T) (repository.Repository[Sample], repository.Transactor)

// Run executes the shared contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("IdentityLifecycle", func(t *testing.T) { testIdentityLifecycle(t, newRepo) })
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newRepo) })
	t.Run("FilterConjunction", func(t *testing.T) { testFilter(t, newRepo) })
	t.Run("UpdateDelete", func(t *testing.T) { testUpdateDelete(t, newRepo) })
	t.Run("WithinTx", func(t *testing.T) { testWithinTx(t, newRepo) })
}

// Equal reports whether two samples hold the same values. Timestamps are
// compared as instants.
func Equal(a, b Sample) bool {
	return a.PK == b.PK &&
		a.Count == b.Count &&
		a.Ratio == b.Ratio &&
		a.Label == b.Label &&
		a.At.Equal(b.At) &&
		a.Span == b.Span &&
		a.Ref == b.Ref
}

func testIdentityLifecycle(t *testing.T, newRepo Factory) {
	ctx := Context()
	repo, _ := newRepo(t)

	s := Sample{Count: 1, Label: "first", At: time.Now()}
	pk, err := repo.Add(ctx, &s)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if pk <= 0 {
		t.Fatalf("Add() pk = %d, want > 0", pk)
	}
	if s.PK != pk {
		t.Fatalf("Add() left PK = %d, want %d", s.PK, pk)
	}

	got, ok, err := repo.Get(ctx, pk)
	if err != nil || !ok {
		t.Fatalf("Get(%d) = _, %v, %v", pk, ok, err)
	}
	if !Equal(got, s) {
		t.Errorf("Get(%d) = %+v, want %+v", pk, got, s)
	}

	if _, err := repo.Add(ctx, &s); !errors.Is(err, repository.ErrAlreadyPersisted) {
		t.Errorf("Add() of persisted record error = %v, want ErrAlreadyPersisted", err)
	}

	second := Sample{Count: 2}
	pk2, err := repo.Add(ctx, &second)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if pk2 == pk {
		t.Errorf("second Add() reused pk %d", pk)
	}

	if _, ok, err := repo.Get(ctx, pk+pk2+100); err != nil || ok {
		t.Errorf("Get(missing) = _, %v, %v; want false, nil", ok, err)
	}
}

func testRoundTrip(t *testing.T, newRepo Factory) {
	ctx := Context()
	repo, _ := newRepo(t)

	utc := time.Date(2024, time.February, 29, 23, 59, 58, 123456789, time.UTC)
	tests := []struct {
		name   string
		sample Sample
	}{
		{
			name:   "zero values",
			sample: Sample{},
		},
		{
			name: "all fields set",
			sample: Sample{
				Count: -42,
				Ratio: 3.141592653589793,
				Label: "caffè e cornetto",
				At:    time.Date(2024, time.December, 31, 12, 30, 15, 999999999, time.Local),
				Span:  3*24*time.Hour + 5*time.Second + 7*time.Microsecond + 11,
				Ref:   7,
			},
		},
		{
			name: "timestamp in another zone",
			sample: Sample{
				At: utc,
			},
		},
		{
			name: "negative duration",
			sample: Sample{
				Span: -(36*time.Hour + 250*time.Millisecond),
			},
		},
		{
			name: "sub-second duration",
			sample: Sample{
				Span: time.Microsecond,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.sample
			pk, err := repo.Add(ctx, &s)
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			got, ok, err := repo.Get(ctx, pk)
			if err != nil || !ok {
				t.Fatalf("Get(%d) = _, %v, %v", pk, ok, err)
			}
			want := tt.sample
			want.PK = pk
			if !Equal(got, want) {
				t.Errorf("round trip = %+v, want %+v", got, want)
			}
		})
	}
}

func testFilter(t *testing.T, newRepo Factory) {
	ctx := Context()
	repo, _ := newRepo(t)

	at := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.Local)
	seed := []Sample{
		{Count: 1, Label: "a", Ref: 1, At: at},
		{Count: 1, Label: "b", Ref: 2},
		{Count: 2, Label: "a", Ref: 1},
		{Count: 1, Label: "a"},
		{Count: 1, Label: "a", Ref: 1},
	}
	pks := make([]int64, len(seed))
	for i := range seed {
		pk, err := repo.Add(ctx, &seed[i])
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		pks[i] = pk
	}

	tests := []struct {
		name  string
		where repository.Where
		want  []int64
	}{
		{name: "nil where", where: nil, want: pks},
		{name: "single field", where: repository.Where{"label": "b"}, want: []int64{pks[1]}},
		{name: "conjunction", where: repository.Where{"count": 1, "label": "a"}, want: []int64{pks[0], pks[3], pks[4]}},
		{name: "three fields", where: repository.Where{"count": 1, "label": "a", "ref": 1}, want: []int64{pks[0], pks[4]}},
		{name: "null reference", where: repository.Where{"ref": nil}, want: []int64{pks[3]}},
		{name: "zero reference", where: repository.Where{"ref": 0}, want: []int64{pks[3]}},
		{name: "timestamp", where: repository.Where{"at": at.UTC()}, want: []int64{pks[0]}},
		{name: "by pk", where: repository.Where{repository.PKField: pks[2]}, want: []int64{pks[2]}},
		{name: "pk never assigned", where: repository.Where{repository.PKField: 0}, want: nil},
		{name: "no match", where: repository.Where{"count": 2, "label": "b"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(ctx, tt.where)
			if err != nil {
				t.Fatalf("GetAll(%v) error = %v", tt.where, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("GetAll(%v) returned %d records, want %d", tt.where, len(got), len(tt.want))
			}
			for i, s := range got {
				if s.PK != tt.want[i] {
					t.Errorf("GetAll(%v)[%d].PK = %d, want %d", tt.where, i, s.PK, tt.want[i])
				}
			}
		})
	}

	if _, err := repo.GetAll(ctx, repository.Where{"nope": 1}); !errors.Is(err, repository.ErrUnknownField) {
		t.Errorf("GetAll(unknown field) error = %v, want ErrUnknownField", err)
	}
}

func testUpdateDelete(t *testing.T, newRepo Factory) {
	ctx := Context()
	repo, _ := newRepo(t)

	s := Sample{Count: 1, Label: "before", Ref: 3}
	pk, err := repo.Add(ctx, &s)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s.Label = "after"
	s.Ref = 0
	s.Span = time.Hour
	if err := repo.Update(ctx, &s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _, err := repo.Get(ctx, pk)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !Equal(got, s) {
		t.Errorf("after Update() Get = %+v, want %+v", got, s)
	}

	missing := Sample{PK: pk + 1000, Label: "ghost"}
	if err := repo.Update(ctx, &missing); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	unsaved := Sample{Label: "unsaved"}
	if err := repo.Update(ctx, &unsaved); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update(unsaved) error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, pk); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, err := repo.Get(ctx, pk); err != nil || ok {
		t.Errorf("Get() after Delete = _, %v, %v; want false, nil", ok, err)
	}
	if err := repo.Delete(ctx, pk); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func testWithinTx(t *testing.T, newRepo Factory) {
	ctx := Context()
	repo, tx := newRepo(t)

	kept := Sample{Label: "kept"}
	if _, err := repo.Add(ctx, &kept); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	errBoom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		s := Sample{Label: "rolled back"}
		if _, err := repo.Add(ctx, &s); err != nil {
			return err
		}
		if err := repo.Delete(ctx, kept.PK); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithinTx() error = %v, want %v", err, errBoom)
	}

	all, err := repo.GetAll(ctx, nil)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 1 || all[0].Label != "kept" {
		t.Fatalf("after rollback GetAll() = %+v, want only the kept record", all)
	}

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		s := Sample{Label: "committed"}
		_, err := repo.Add(ctx, &s)
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}
	got, err := repo.GetAll(ctx, repository.Where{"label": "committed"})
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("after commit found %d records, want 1", len(got))
	}
}
