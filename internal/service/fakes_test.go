package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the Postgres schema. It enforces the
// slot uniqueness and period exclusion constraints the way the database does.
type memStore struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*entity.Reservation
	periods      map[uuid.UUID]*entity.RoomDisablePeriod
	rooms        map[uuid.UUID]*entity.Room
	shops        map[uuid.UUID]*entity.Shop
	users        map[uuid.UUID]*entity.User

	locks      []string
	failCreate func(r *entity.Reservation) error
}

func newMemStore() *memStore {
	return &memStore{
		reservations: make(map[uuid.UUID]*entity.Reservation),
		periods:      make(map[uuid.UUID]*entity.RoomDisablePeriod),
		rooms:        make(map[uuid.UUID]*entity.Room),
		shops:        make(map[uuid.UUID]*entity.Shop),
		users:        make(map[uuid.UUID]*entity.User),
	}
}

func cloneReservation(r *entity.Reservation) *entity.Reservation {
	c := *r
	c.Slots = append([]entity.TimeSlot(nil), r.Slots...)
	c.Room = nil
	return &c
}

func clonePeriod(p *entity.RoomDisablePeriod) *entity.RoomDisablePeriod {
	c := *p
	return &c
}

type snapshot struct {
	reservations map[uuid.UUID]*entity.Reservation
	periods      map[uuid.UUID]*entity.RoomDisablePeriod
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		reservations: make(map[uuid.UUID]*entity.Reservation, len(s.reservations)),
		periods:      make(map[uuid.UUID]*entity.RoomDisablePeriod, len(s.periods)),
	}
	for id, r := range s.reservations {
		snap.reservations[id] = cloneReservation(r)
	}
	for id, p := range s.periods {
		snap.periods[id] = clonePeriod(p)
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = snap.reservations
	s.periods = snap.periods
}

// reservation returns a copy of the stored row for assertions.
func (s *memStore) reservation(t *testing.T, id uuid.UUID) *entity.Reservation {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		t.Fatalf("reservation %s not stored", id)
	}
	return cloneReservation(r)
}

func (s *memStore) recordLock(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, name)
}

func (s *memStore) takenLocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locks...)
}

// inShop reports whether the reservation's room belongs to a shop matching
// ownerID (when set) and shopID (when set). Callers hold mu.
func (s *memStore) inShop(r *entity.Reservation, ownerID, shopID *uuid.UUID) bool {
	room, ok := s.rooms[r.RoomID]
	if !ok {
		return false
	}
	shop, ok := s.shops[room.ShopID]
	if !ok {
		return false
	}
	if ownerID != nil && shop.OwnerID != *ownerID {
		return false
	}
	return shopID == nil || shop.ID == *shopID
}

func (s *memStore) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

// fakeTx serializes transactions and rolls the store back when fn fails.
type fakeTx struct {
	store *memStore
	mu    sync.Mutex
}

type fakeTxKey struct{}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.store.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeReservations struct{ *memStore }

func (s fakeReservations) Create(ctx context.Context, r *entity.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreate != nil {
		if err := s.failCreate(r); err != nil {
			return err
		}
	}

	for _, other := range s.reservations {
		if other.RoomID != r.RoomID || !other.Date.Equal(r.Date) {
			continue
		}
		for _, a := range other.Slots {
			for _, b := range r.Slots {
				if a == b {
					return entity.ErrSlotAlreadyBooked
				}
			}
		}
	}
	s.reservations[r.ID] = cloneReservation(r)
	return nil
}

func (s fakeReservations) GetByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	return cloneReservation(r), nil
}

func (s fakeReservations) GetByUserID(ctx context.Context, userID uuid.UUID, shopID *uuid.UUID) ([]*entity.Reservation, error) {
	return s.list(func(r *entity.Reservation) bool {
		return r.UserID == userID && s.inShop(r, nil, shopID)
	}), nil
}

func (s fakeReservations) GetByOwnerID(ctx context.Context, ownerID uuid.UUID, shopID *uuid.UUID) ([]*entity.Reservation, error) {
	return s.list(func(r *entity.Reservation) bool {
		return s.inShop(r, &ownerID, shopID)
	}), nil
}

func (s fakeReservations) list(keep func(r *entity.Reservation) bool) []*entity.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s fakeReservations) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return false, entity.ErrReservationNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (s fakeReservations) UpdateStatusAndPrice(ctx context.Context, id uuid.UUID, status entity.ReservationStatus, totalPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return entity.ErrReservationNotFound
	}
	r.Status = status
	r.TotalPrice = totalPrice
	return nil
}

func (s fakeReservations) DeleteSlots(ctx context.Context, id uuid.UUID, slots []entity.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return entity.ErrReservationNotFound
	}
	drop := make(map[entity.TimeSlot]bool, len(slots))
	for _, slot := range slots {
		drop[slot] = true
	}
	kept := r.Slots[:0]
	for _, slot := range r.Slots {
		if !drop[slot] {
			kept = append(kept, slot)
		}
	}
	r.Slots = kept
	return nil
}

func (s fakeReservations) FindBookedSlots(ctx context.Context, roomID uuid.UUID, date entity.Date, slots []entity.TimeSlot) ([]entity.TimeSlot, error) {
	booked, _ := s.ListBookedSlots(ctx, roomID, date)
	want := make(map[entity.TimeSlot]bool, len(slots))
	for _, slot := range slots {
		want[slot] = true
	}
	var out []entity.TimeSlot
	for _, slot := range booked {
		if want[slot] {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s fakeReservations) ListBookedSlots(ctx context.Context, roomID uuid.UUID, date entity.Date) ([]entity.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.TimeSlot
	for _, r := range s.reservations {
		if r.RoomID == roomID && r.Date.Equal(date) {
			out = append(out, r.Slots...)
		}
	}
	entity.SortSlots(out)
	return out, nil
}

func (s fakeReservations) ListSlotsBetween(ctx context.Context, roomID uuid.UUID, from, to entity.Date) ([]entity.SlotRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.SlotRef
	for _, r := range s.reservations {
		if r.RoomID != roomID || r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		for _, slot := range r.Slots {
			out = append(out, entity.SlotRef{ReservationID: r.ID, Date: r.Date, TimeSlot: slot})
		}
	}
	return out, nil
}

func (s fakeReservations) ListActiveThrough(ctx context.Context, date entity.Date) ([]*entity.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Reservation
	for _, r := range s.reservations {
		active := r.Status == entity.ReservationStatusPending || r.Status == entity.ReservationStatusInProgress
		if active && !r.Date.After(date) {
			out = append(out, cloneReservation(r))
		}
	}
	return out, nil
}

func (s fakeReservations) LockRoomDate(ctx context.Context, roomID uuid.UUID, date entity.Date) error {
	s.recordLock("day:" + roomID.String() + ":" + date.String())
	return nil
}

type fakePeriods struct{ *memStore }

func (s fakePeriods) overlapping(roomID uuid.UUID, start, end time.Time, exclude *uuid.UUID) []*entity.RoomDisablePeriod {
	var out []*entity.RoomDisablePeriod
	for _, p := range s.periods {
		if p.RoomID != roomID || (exclude != nil && p.ID == *exclude) {
			continue
		}
		if p.Overlaps(start, end) {
			out = append(out, clonePeriod(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	return out
}

func (s fakePeriods) Create(ctx context.Context, p *entity.RoomDisablePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.overlapping(p.RoomID, p.StartDateTime, p.EndDateTime, nil)) > 0 {
		return entity.ErrPeriodOverlap
	}
	s.periods[p.ID] = clonePeriod(p)
	return nil
}

func (s fakePeriods) Update(ctx context.Context, p *entity.RoomDisablePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.periods[p.ID]; !ok {
		return entity.ErrDisablePeriodNotFound
	}
	if len(s.overlapping(p.RoomID, p.StartDateTime, p.EndDateTime, &p.ID)) > 0 {
		return entity.ErrPeriodOverlap
	}
	s.periods[p.ID] = clonePeriod(p)
	return nil
}

func (s fakePeriods) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.periods[id]; !ok {
		return entity.ErrDisablePeriodNotFound
	}
	delete(s.periods, id)
	return nil
}

func (s fakePeriods) GetByID(ctx context.Context, id uuid.UUID) (*entity.RoomDisablePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[id]
	if !ok {
		return nil, entity.ErrDisablePeriodNotFound
	}
	return clonePeriod(p), nil
}

func (s fakePeriods) FindOverlapping(ctx context.Context, roomID uuid.UUID, start, end time.Time, exclude *uuid.UUID) ([]*entity.RoomDisablePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlapping(roomID, start, end, exclude), nil
}

func (s fakePeriods) ExistsAt(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.periods {
		if p.RoomID == roomID && p.Contains(at) {
			return true, nil
		}
	}
	return false, nil
}

func (s fakePeriods) ListByRoom(ctx context.Context, roomID uuid.UUID, endingAfter time.Time) ([]*entity.RoomDisablePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.RoomDisablePeriod
	for _, p := range s.periods {
		if p.RoomID == roomID && p.EndDateTime.After(endingAfter) {
			out = append(out, clonePeriod(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	return out, nil
}

func (s fakePeriods) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.RoomDisablePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.RoomDisablePeriod
	for _, p := range s.periods {
		if p.OwnerID == ownerID {
			out = append(out, clonePeriod(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	return out, nil
}

func (s fakePeriods) DeleteEndedBefore(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.periods {
		if p.EndDateTime.Before(before) {
			delete(s.periods, id)
			n++
		}
	}
	return n, nil
}

func (s fakePeriods) LockRoom(ctx context.Context, roomID uuid.UUID) error {
	s.recordLock("room:" + roomID.String())
	return nil
}

func (s fakePeriods) LockRoomShared(ctx context.Context, roomID uuid.UUID) error {
	s.recordLock("room-shared:" + roomID.String())
	return nil
}

type fakeRooms struct{ *memStore }

func (s fakeRooms) GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, entity.ErrRoomNotFound
	}
	c := *r
	return &c, nil
}

func (s fakeRooms) GetShop(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shops[id]
	if !ok {
		return nil, entity.ErrShopNotFound
	}
	c := *sh
	return &c, nil
}

type fakeUsers struct{ *memStore }

func (s fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s fakeUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

type fakePublisher struct {
	mu    sync.Mutex
	tasks []*Task
}

func (p *fakePublisher) Publish(ctx context.Context, task *Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *fakePublisher) ofType(taskType string) []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Task
	for _, t := range p.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

func rate(v float64) *float64 { return &v }

// fixture is one venue: a shop open 09:00-22:00 with a gaming room,
// a broadcast room and a room taken out of service.
type fixture struct {
	store     *memStore
	publisher *fakePublisher
	now       time.Time
	loc       *time.Location

	owner, user uuid.UUID
	shop        *entity.Shop
	room        *entity.Room
	tvRoom      *entity.Room
	closedRoom  *entity.Room

	reservations ReservationService
	periods      DisablePeriodService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		store:     newMemStore(),
		publisher: &fakePublisher{},
		now:       now,
		loc:       time.UTC,
		owner:     uuid.New(),
		user:      uuid.New(),
	}

	f.shop = &entity.Shop{ID: uuid.New(), OwnerID: f.owner, Name: "Arena", OpeningTime: "09:00", ClosingTime: "22:00"}
	f.room = &entity.Room{
		ID: uuid.New(), ShopID: f.shop.ID, Name: "PS5 #1", DeviceCategory: entity.DeviceCategoryGaming,
		SingleRate: rate(10), MultiRate: rate(15), IsAvailable: true,
	}
	f.tvRoom = &entity.Room{
		ID: uuid.New(), ShopID: f.shop.ID, Name: "Screen", DeviceCategory: entity.DeviceCategoryBroadcast,
		SingleRate: rate(5), OtherRate: rate(20), IsAvailable: true,
	}
	f.closedRoom = &entity.Room{
		ID: uuid.New(), ShopID: f.shop.ID, Name: "PS4", DeviceCategory: entity.DeviceCategoryGaming,
		SingleRate: rate(8), IsAvailable: false,
	}

	f.store.shops[f.shop.ID] = f.shop
	for _, r := range []*entity.Room{f.room, f.tvRoom, f.closedRoom} {
		f.store.rooms[r.ID] = r
	}
	f.store.users[f.user] = &entity.User{ID: f.user, Name: "guest", TelegramID: "100"}
	f.store.users[f.owner] = &entity.User{ID: f.owner, Name: "owner", TelegramID: "200"}

	tx := &fakeTx{store: f.store}
	f.reservations = NewReservationService(
		fakeReservations{f.store}, fakePeriods{f.store}, fakeRooms{f.store}, fakeUsers{f.store},
		tx, f.publisher, f.clock, f.loc)
	f.periods = NewDisablePeriodService(
		fakePeriods{f.store}, fakeReservations{f.store}, fakeRooms{f.store},
		tx, f.publisher, f.clock, f.loc)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

// seed stores a reservation directly, bypassing booking rules.
func (f *fixture) seed(status entity.ReservationStatus, date entity.Date, labels ...string) *entity.Reservation {
	slots := make([]entity.TimeSlot, len(labels))
	for i, l := range labels {
		slots[i] = entity.TimeSlot(l)
	}
	r := &entity.Reservation{
		ID:         uuid.New(),
		RoomID:     f.room.ID,
		UserID:     f.user,
		Date:       date,
		Type:       entity.ReservationTypeSingle,
		TotalPrice: price(10, len(slots)),
		Status:     status,
		Slots:      slots,
		CreatedAt:  f.now,
	}
	f.store.mu.Lock()
	f.store.reservations[r.ID] = cloneReservation(r)
	f.store.mu.Unlock()
	return r
}

func at(date entity.Date, clock string) time.Time {
	return date.At(entity.TimeSlot(clock), time.UTC)
}
