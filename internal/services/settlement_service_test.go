package services

import (
	"context"
	"errors"
	"testing"

	"splitbook/internal/core"
	"splitbook/internal/split"
	"splitbook/internal/storage"
)

type fakeStore struct {
	created  []*core.Settlement
	updated  map[int64]*core.Settlement
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{updated: make(map[int64]*core.Settlement)}
}

func (f *fakeStore) CreateSettlement(ctx context.Context, s *core.Settlement) error {
	if f.failWith != nil {
		return f.failWith
	}
	s.ID = int64(len(f.created) + 1)
	f.created = append(f.created, s)
	return nil
}

func (f *fakeStore) UpdateSettlement(ctx context.Context, id int64, s *core.Settlement) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.updated[id] = s
	return nil
}

func (f *fakeStore) GetSettlement(ctx context.Context, id int64) (*core.Settlement, error) {
	for _, s := range f.created {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListSettlements(ctx context.Context) ([]core.Settlement, error) {
	var out []core.Settlement
	for _, s := range f.created {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) DeleteSettlement(ctx context.Context, id int64) error { return nil }
func (f *fakeStore) Close() error                                         { return nil }

type fakePublisher struct {
	published []int64
	failWith  error
}

func (f *fakePublisher) PublishSettlementSync(ctx context.Context, id int64, weekEndDate string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func testPolicy(t *testing.T) *split.Policy {
	t.Helper()
	policy, err := split.NewPolicy(
		core.NewDate(2026, 2, 8),
		split.Fractions{PartyA: 3000, PartyB: 6500, PartyC: 500},
		split.Fractions{PartyA: 3300, PartyB: 6200, PartyC: 500},
	)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return policy
}

func draftSettlement() *core.Settlement {
	return &core.Settlement{
		WeekStartDate: core.NewDate(2026, 1, 26),
		WeekEndDate:   core.NewDate(2026, 2, 1),
		GrossIncome:   core.Money{Cents: 100000},
		PaypalFees:    core.Money{Cents: 1000},
		Expenses: []core.Expense{
			{Description: "Server hosting", Amount: core.Money{Cents: 5000}},
			{Description: "Domain renewal", Amount: core.Money{Cents: 2000}},
		},
	}
}

func TestCreateSettlement_ComputesDerivedFields(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewSettlementService(store, pub, testPolicy(t))

	s := draftSettlement()
	if err := svc.CreateSettlement(context.Background(), s); err != nil {
		t.Fatalf("CreateSettlement: %v", err)
	}

	if s.NetIncome.Cents != 92000 {
		t.Errorf("net income = %d, want 92000", s.NetIncome.Cents)
	}
	if s.PartyAShare.Cents != 27600 || s.PartyBShare.Cents != 59800 || s.PartyCShare.Cents != 4600 {
		t.Errorf("shares = %d/%d/%d", s.PartyAShare.Cents, s.PartyBShare.Cents, s.PartyCShare.Cents)
	}
	sum := s.PartyAShare.Cents + s.PartyBShare.Cents + s.PartyCShare.Cents
	if sum != s.NetIncome.Cents {
		t.Errorf("shares sum to %d, net is %d", sum, s.NetIncome.Cents)
	}
	if len(store.created) != 1 {
		t.Fatalf("store received %d settlements", len(store.created))
	}
	if len(pub.published) != 1 || pub.published[0] != s.ID {
		t.Errorf("published ids = %v, want [%d]", pub.published, s.ID)
	}
}

func TestCreateSettlement_DerivesFeesFromPercentage(t *testing.T) {
	store := newFakeStore()
	svc := NewSettlementService(store, nil, testPolicy(t))

	s := draftSettlement()
	s.PaypalFees = core.Money{}
	s.FeePercentBP = 290 // 2.9%
	if err := svc.CreateSettlement(context.Background(), s); err != nil {
		t.Fatalf("CreateSettlement: %v", err)
	}
	if s.PaypalFees.Cents != 2900 {
		t.Errorf("derived fees = %d, want 2900", s.PaypalFees.Cents)
	}
}

func TestCreateSettlement_ExplicitFeesWinOverPercentage(t *testing.T) {
	store := newFakeStore()
	svc := NewSettlementService(store, nil, testPolicy(t))

	s := draftSettlement()
	s.FeePercentBP = 290
	if err := svc.CreateSettlement(context.Background(), s); err != nil {
		t.Fatalf("CreateSettlement: %v", err)
	}
	if s.PaypalFees.Cents != 1000 {
		t.Errorf("fees = %d, want explicit 1000", s.PaypalFees.Cents)
	}
}

func TestCreateSettlement_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*core.Settlement)
		wantField string
	}{
		{
			name:      "inverted period",
			mutate:    func(s *core.Settlement) { s.WeekEndDate = core.NewDate(2026, 1, 25) },
			wantField: "weekEndDate",
		},
		{
			name:      "negative gross income",
			mutate:    func(s *core.Settlement) { s.GrossIncome = core.Money{Cents: -1} },
			wantField: "grossIncome",
		},
		{
			name:      "fee percentage over 100",
			mutate:    func(s *core.Settlement) { s.FeePercentBP = 10001 },
			wantField: "feePercentage",
		},
		{
			name: "zero expense amount",
			mutate: func(s *core.Settlement) {
				s.Expenses[1].Amount = core.Money{}
			},
			wantField: "expenses[1].amount",
		},
		{
			name: "direct payment without party",
			mutate: func(s *core.Settlement) {
				s.DirectPayments = []core.DirectPayment{
					{Amount: core.Money{Cents: 100}, PaymentMethod: core.MethodPaypal},
				}
			},
			wantField: "directPayments[0].receivedBy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewSettlementService(store, nil, testPolicy(t))

			s := draftSettlement()
			tt.mutate(s)

			err := svc.CreateSettlement(context.Background(), s)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", vErr.Field, tt.wantField)
			}
			if len(store.created) != 0 {
				t.Error("invalid settlement must not reach storage")
			}
		})
	}
}

func TestCreateSettlement_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{failWith: errors.New("broker down")}
	svc := NewSettlementService(store, pub, testPolicy(t))

	if err := svc.CreateSettlement(context.Background(), draftSettlement()); err != nil {
		t.Fatalf("CreateSettlement: %v", err)
	}
	if len(store.created) != 1 {
		t.Error("settlement must still be saved when publish fails")
	}
}

func TestUpdateSettlement_NotFoundPassesThrough(t *testing.T) {
	store := newFakeStore()
	store.failWith = storage.ErrNotFound
	svc := NewSettlementService(store, nil, testPolicy(t))

	err := svc.UpdateSettlement(context.Background(), 42, draftSettlement())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSettlement_RecomputesWithNewPolicyWindow(t *testing.T) {
	store := newFakeStore()
	svc := NewSettlementService(store, nil, testPolicy(t))

	// Week ending on the cutoff day itself uses the "after" fractions.
	s := draftSettlement()
	s.WeekStartDate = core.NewDate(2026, 2, 2)
	s.WeekEndDate = core.NewDate(2026, 2, 8)
	if err := svc.UpdateSettlement(context.Background(), 7, s); err != nil {
		t.Fatalf("UpdateSettlement: %v", err)
	}
	if s.PartyAShare.Cents != 30360 { // 92000 * 0.33
		t.Errorf("partyA share = %d, want 30360", s.PartyAShare.Cents)
	}
	if _, ok := store.updated[7]; !ok {
		t.Error("update did not reach storage")
	}
}
