package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/repository"
	"github.com/google/uuid"
)

type inTxKey struct{}

// memStore is an in-memory stand-in for the gorm repositories. Transactions
// are serialized and roll back to a snapshot on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	events  map[uuid.UUID]models.Event
	tickets map[uuid.UUID]models.Ticket
	carts   map[uuid.UUID]models.Cart
	orders  map[uuid.UUID]models.Order
	users   map[uuid.UUID]models.User

	failCartDelete error
}

func newMemStore() *memStore {
	return &memStore{
		events:  map[uuid.UUID]models.Event{},
		tickets: map[uuid.UUID]models.Ticket{},
		carts:   map[uuid.UUID]models.Cart{},
		orders:  map[uuid.UUID]models.Order{},
		users:   map[uuid.UUID]models.User{},
	}
}

type memSnapshot struct {
	events  map[uuid.UUID]models.Event
	tickets map[uuid.UUID]models.Ticket
	carts   map[uuid.UUID]models.Cart
	orders  map[uuid.UUID]models.Order
	users   map[uuid.UUID]models.User
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		events:  map[uuid.UUID]models.Event{},
		tickets: map[uuid.UUID]models.Ticket{},
		carts:   map[uuid.UUID]models.Cart{},
		orders:  map[uuid.UUID]models.Order{},
		users:   map[uuid.UUID]models.User{},
	}
	for k, v := range m.events {
		s.events[k] = v
	}
	for k, v := range m.tickets {
		s.tickets[k] = v
	}
	for k, v := range m.carts {
		s.carts[k] = copyCart(v)
	}
	for k, v := range m.orders {
		s.orders[k] = copyOrder(v)
	}
	for k, v := range m.users {
		s.users[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events, m.tickets, m.carts, m.orders, m.users = s.events, s.tickets, s.carts, s.orders, s.users
}

func copyCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	return c
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return o
}

func (m *memStore) eventStore() *memEvents   { return &memEvents{m} }
func (m *memStore) ticketStore() *memTickets { return &memTickets{m} }
func (m *memStore) cartStore() *memCarts     { return &memCarts{m} }
func (m *memStore) orderStore() *memOrders   { return &memOrders{m} }
func (m *memStore) userStore() *memUsers     { return &memUsers{m} }

func (m *memStore) ticket(id uuid.UUID) models.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickets[id]
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) hasCart(userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[userID]
	return ok
}

type memEvents struct{ *memStore }

func (s *memEvents) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = models.EventStatusUpcoming
	}
	for i := range event.Tickets {
		t := &event.Tickets[i]
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.EventID = event.ID
		if t.MaxPerPurchase == 0 {
			t.MaxPerPurchase = models.DefaultMaxPerPurchase
		}
		s.tickets[t.ID] = *t
	}
	stored := *event
	stored.Tickets = nil
	s.events[event.ID] = stored
	return nil
}

func (s *memEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return &e, nil
}

func (s *memEvents) GetWithTickets(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tickets, _ := s.ticketStore().ListByEvent(ctx, id, false)
	e.Tickets = tickets
	return e, nil
}

func (s *memEvents) Update(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.events[event.ID]
	if !ok {
		return models.ErrEventNotFound
	}
	stored := *event
	stored.Tickets = nil
	stored.OrganizerID = prev.OrganizerID
	s.events[event.ID] = stored
	return nil
}

func (s *memEvents) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return models.ErrEventNotFound
	}
	for tid, t := range s.tickets {
		if t.EventID == id {
			delete(s.tickets, tid)
		}
	}
	delete(s.events, id)
	return nil
}

func (s *memEvents) List(_ context.Context, q repository.EventQuery) ([]models.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Event{}
	for _, e := range s.events {
		if q.Keyword != "" && !strings.Contains(strings.ToLower(e.Title+" "+e.Description), strings.ToLower(q.Keyword)) {
			continue
		}
		if len(q.Categories) > 0 && e.Category != q.Categories[0] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (s *memEvents) ListByOrganizer(_ context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Event{}
	for _, e := range s.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEvents) IDsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]uuid.UUID, error) {
	events, _ := s.ListByOrganizer(ctx, organizerID)
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

type memTickets struct{ *memStore }

func (s *memTickets) Create(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.MaxPerPurchase == 0 {
		ticket.MaxPerPurchase = models.DefaultMaxPerPurchase
	}
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *memTickets) GetByID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	return &t, nil
}

func (s *memTickets) GetWithEvent(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if event, ok := s.events[t.EventID]; ok {
		t.EventDetails = event.Details()
	}
	return t, nil
}

func (s *memTickets) Update(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.tickets[ticket.ID]
	if !ok {
		return models.ErrTicketNotFound
	}
	if prev.QuantitySold > ticket.Quantity {
		return models.NewValidationError("quantity cannot be lower than tickets already sold")
	}
	stored := *ticket
	stored.QuantitySold = prev.QuantitySold
	stored.EventID = prev.EventID
	s.tickets[ticket.ID] = stored
	return nil
}

func (s *memTickets) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return models.ErrTicketNotFound
	}
	delete(s.tickets, id)
	return nil
}

func (s *memTickets) ListAll(_ context.Context) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (s *memTickets) ListByEvent(_ context.Context, eventID uuid.UUID, activeOnly bool) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range s.tickets {
		if t.EventID == eventID && (!activeOnly || t.Active) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

func (s *memTickets) Reserve(_ context.Context, id uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.ErrTicketNotFound
	}
	if t.QuantitySold+qty > t.Quantity {
		return models.ErrInsufficientInventory
	}
	t.QuantitySold += qty
	s.tickets[id] = t
	return nil
}

func (s *memTickets) Release(_ context.Context, id uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.ErrTicketNotFound
	}
	if t.QuantitySold < qty {
		return models.NewValidationError("cannot release more tickets than were sold")
	}
	t.QuantitySold -= qty
	s.tickets[id] = t
	return nil
}

type memCarts struct{ *memStore }

func (s *memCarts) GetByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil, models.ErrCartNotFound
	}
	c = copyCart(c)
	return &c, nil
}

func (s *memCarts) CreateIfAbsent(_ context.Context, cart *models.Cart) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.carts[cart.UserID]
	if !ok {
		stored = copyCart(*cart)
		s.carts[cart.UserID] = stored
	}
	c := copyCart(stored)
	return &c, nil
}

func (s *memCarts) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.UserID] = copyCart(*cart)
	return nil
}

func (s *memCarts) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCartDelete != nil {
		return s.failCartDelete
	}
	delete(s.carts, userID)
	return nil
}

func (s *memCarts) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, c := range s.carts {
		if !c.ExpiresAt.After(cutoff) {
			delete(s.carts, k)
			n++
		}
	}
	return n, nil
}

type memOrders struct{ *memStore }

func (s *memOrders) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentInfo.ID == order.PaymentInfo.ID {
			return models.ErrPaymentAlreadyProcessed
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = copyOrder(*order)
	return nil
}

func (s *memOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (s *memOrders) GetByPaymentID(_ context.Context, paymentID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentInfo.ID == paymentID {
			o = copyOrder(o)
			return &o, nil
		}
	}
	return nil, nil
}

func (s *memOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (s *memOrders) ListByEvents(_ context.Context, eventIDs []uuid.UUID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		for _, id := range eventIDs {
			if o.HasEvent(id) {
				out = append(out, copyOrder(o))
				break
			}
		}
	}
	return out, nil
}

func (s *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

type memUsers struct{ *memStore }

func (s *memUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *memUsers) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *memUsers) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return models.ErrUserNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
