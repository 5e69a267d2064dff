package state

import (
	"sync"

	"storefront/internal/domain"
)

// Snapshot is a read-only view of the shared application state. Pointer
// fields are replaced on every write and never mutated in place, so a
// snapshot stays valid after later publishes.
type Snapshot struct {
	SelectedStore      *domain.Store
	FulfilmentMethod   domain.FulfilmentMethodType
	FulfilmentLocation *domain.FulfilmentLocation
	SearchResult       *domain.StoreSearchResult
	Basket             *domain.Basket
	Member             *domain.MemberProfile
	MentionMeOffer     *MentionMeOffer
}

// MentionMeOffer is the session-scoped referral offer cache.
type MentionMeOffer struct {
	OfferID     string `json:"offerId"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

func (s Snapshot) SelectedStoreID() int {
	if s.SelectedStore == nil {
		return 0
	}
	return s.SelectedStore.ID
}

func (s Snapshot) BasketToken() string {
	if s.Basket == nil {
		return ""
	}
	return s.Basket.Token
}

// Store owns the shared application state. Reads are served from a
// snapshot under a read lock; writes are applied one at a time on the
// store's own loop goroutine, which plays the part of the UI-owning context.
type Store struct {
	mu  sync.RWMutex
	cur Snapshot

	main chan func()
	done chan struct{}
	once sync.Once

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

func NewStore(initial Snapshot) *Store {
	if initial.FulfilmentMethod == "" {
		initial.FulfilmentMethod = domain.FulfilmentDelivery
	}
	s := &Store{
		cur:  initial,
		main: make(chan func()),
		done: make(chan struct{}),
		subs: make(map[int]chan Snapshot),
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	for {
		select {
		case fn := <-s.main:
			fn()
		case <-s.done:
			return
		}
	}
}

// Close stops the publish loop. Publishes after Close are dropped.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Publish applies mutate on the loop goroutine and returns once the new
// state is visible to readers and has been offered to subscribers.
func (s *Store) Publish(mutate func(*Snapshot)) {
	applied := make(chan struct{})
	job := func() {
		s.mu.Lock()
		mutate(&s.cur)
		snap := s.cur
		s.mu.Unlock()
		s.notify(snap)
		close(applied)
	}
	select {
	case s.main <- job:
		<-applied
	case <-s.done:
	}
}

// Subscribe returns a channel that receives the latest snapshot after each
// publish. Slow subscribers only ever see the most recent snapshot.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()
	cancel := func() {
		s.subMu.Lock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) SetBasket(b *domain.Basket) {
	s.Publish(func(st *Snapshot) { st.Basket = b })
}

func (s *Store) ClearBasket() {
	s.Publish(func(st *Snapshot) { st.Basket = nil })
}

func (s *Store) SetSelectedStore(store *domain.Store) {
	s.Publish(func(st *Snapshot) { st.SelectedStore = store })
}

func (s *Store) SetFulfilmentMethod(f domain.FulfilmentMethodType) {
	s.Publish(func(st *Snapshot) { st.FulfilmentMethod = f })
}

// SetSearchResult records a store search and the location it was made from.
func (s *Store) SetSearchResult(r *domain.StoreSearchResult) {
	s.Publish(func(st *Snapshot) {
		st.SearchResult = r
		if r != nil {
			loc := r.FulfilmentLocation
			st.FulfilmentLocation = &loc
		}
	})
}

func (s *Store) SetMember(m *domain.MemberProfile) {
	s.Publish(func(st *Snapshot) { st.Member = m })
}

func (s *Store) SetMentionMeOffer(o *MentionMeOffer) {
	s.Publish(func(st *Snapshot) { st.MentionMeOffer = o })
}

func (s *Store) ClearMentionMeOffer() {
	s.Publish(func(st *Snapshot) { st.MentionMeOffer = nil })
}

// SignOut drops member data and every session-scoped cache.
func (s *Store) SignOut() {
	s.Publish(func(st *Snapshot) {
		st.Member = nil
		st.MentionMeOffer = nil
	})
}
