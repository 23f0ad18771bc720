package state

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"podium/internal/auth/store/authcontext"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/testutil"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := Generate()
		require.NoError(t, err)
		require.Regexp(t, hex64, token)
		_, dup := seen[token]
		require.False(t, dup, "duplicate state token")
		seen[token] = struct{}{}
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("abc", "abc"))
	assert.False(t, Matches("abc", "abd"))
	assert.False(t, Matches("abc", "abcd"))
	assert.False(t, Matches("", ""))
	assert.False(t, Matches("abc", ""))
}

type ServiceSuite struct {
	suite.Suite
	store   *authcontext.Store
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.store = authcontext.New(authcontext.NewInMemoryStorage(), authcontext.WithClock(func() time.Time { return s.now }))
	s.service = NewService(s.store)
}

func (s *ServiceSuite) TestIssueThenValidateOnce() {
	token, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	s.NoError(s.service.Validate(s.ctx, "sid-1", token))

	err = s.service.Validate(s.ctx, "sid-1", token)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *ServiceSuite) TestMismatchConsumesStoredToken() {
	token, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	err = s.service.Validate(s.ctx, "sid-1", "forged")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	err = s.service.Validate(s.ctx, "sid-1", token)
	s.ErrorIs(err, ErrInvalidState, "token must not survive a failed attempt")
}

func (s *ServiceSuite) TestExpiredToken() {
	token, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	s.now = s.now.Add(DefaultTTL)
	s.ErrorIs(s.service.Validate(s.ctx, "sid-1", token), ErrInvalidState)
}

func (s *ServiceSuite) TestOtherSessionCannotValidate() {
	token, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	s.ErrorIs(s.service.Validate(s.ctx, "sid-2", token), ErrInvalidState)
	s.NoError(s.service.Validate(s.ctx, "sid-1", token))
}

func (s *ServiceSuite) TestReissueReplacesToken() {
	first, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)
	second, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	s.NotEqual(first, second)
	s.ErrorIs(s.service.Validate(s.ctx, "sid-1", first), ErrInvalidState)
}

func (s *ServiceSuite) TestConcurrentTabsHaveOneWinner() {
	token, err := s.service.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	res := testutil.RunConcurrent(16, func(int) error {
		return s.service.Validate(s.ctx, "sid-1", token)
	})

	s.Equal(1, res.Successes())
	s.Equal(15, res[dErrors.CodeInvalidState])
	s.Equal(16, res.Total())
}

func (s *ServiceSuite) TestCustomTTL() {
	svc := NewService(s.store, WithTTL(time.Minute))
	token, err := svc.Issue(s.ctx, "sid-1")
	s.Require().NoError(err)

	s.now = s.now.Add(61 * time.Second)
	s.ErrorIs(svc.Validate(s.ctx, "sid-1", token), ErrInvalidState)
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, authcontext.Key, string, time.Duration) error {
	return errors.New("backend down")
}

func (failingStore) Consume(context.Context, string, authcontext.Key) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func TestValidateBackendFailureIsInvalidState(t *testing.T) {
	svc := NewService(failingStore{})

	err := svc.Validate(context.Background(), "sid", "token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = svc.Issue(context.Background(), "sid")
	assert.Error(t, err)
}
