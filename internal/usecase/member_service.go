package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/state"
)

type MemberService struct {
	gateway MemberGateway
	session TokenSession
	profile cache[domain.MemberProfile]
	state   *state.Store
	fetcher *Fetcher
	expiry  time.Duration
	logger  *slog.Logger
}

func NewMemberService(gateway MemberGateway, session TokenSession, store CacheStore, st *state.Store, fetcher *Fetcher, expiry time.Duration, logger *slog.Logger) *MemberService {
	return &MemberService{
		gateway: gateway,
		session: session,
		profile: newCache[domain.MemberProfile](store, keyMemberProfile),
		state:   st,
		fetcher: fetcher,
		expiry:  expiry,
		logger:  orDiscard(logger),
	}
}

func (s *MemberService) Login(ctx context.Context, email, password string) (*domain.MemberProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrBadRequest("email and password required")
	}
	tokens, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.session.SetTokens(tokens)
	s.state.ClearMentionMeOffer()
	if err := s.profile.clear(ctx); err != nil {
		s.logger.Warn("cache_clear_failed", "key", keyMemberProfile, "err", err)
	}
	s.logger.Info("member_logged_in")
	return s.GetProfile(ctx)
}

// Logout ends the session on the backend, then locally. A backend that
// already considers the session gone is not an error.
func (s *MemberService) Logout(ctx context.Context) error {
	if !s.session.SignedIn() {
		return ErrMemberRequired
	}
	if err := s.gateway.Logout(ctx); err != nil && !errors.Is(err, ErrUnauthorized) {
		return err
	}
	s.signOut(ctx)
	return nil
}

// GetProfile refreshes the member profile from the web, falling back to a
// recent cached copy, and publishes it.
func (s *MemberService) GetProfile(ctx context.Context) (*domain.MemberProfile, error) {
	if !s.session.SignedIn() {
		return nil, ErrMemberRequired
	}
	storeID := s.state.Snapshot().SelectedStoreID()
	p, err := webFirst(ctx, s.fetcher, s.profile, s.expiry, func(ctx context.Context) (domain.MemberProfile, error) {
		p, err := s.gateway.GetProfile(ctx, storeID)
		if err == nil {
			p.FetchTimestamp = time.Now()
		}
		return p, err
	})
	if err != nil {
		s.HandleAuthFailure(ctx, err)
		return nil, err
	}
	s.state.SetMember(&p)
	return &p, nil
}

// HandleAuthFailure signs the member out when err is an auth failure and
// reports whether it did.
func (s *MemberService) HandleAuthFailure(ctx context.Context, err error) bool {
	if !errors.Is(err, ErrUnauthorized) {
		return false
	}
	if !s.session.SignedIn() && s.state.Snapshot().Member == nil {
		return true
	}
	s.logger.Info("member_session_rejected", "err", err)
	s.signOut(ctx)
	return true
}

func (s *MemberService) signOut(ctx context.Context) {
	s.session.Clear()
	if err := s.profile.clear(ctx); err != nil {
		s.logger.Warn("cache_clear_failed", "key", keyMemberProfile, "err", err)
	}
	s.state.SignOut()
}
