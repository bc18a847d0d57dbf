package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-account-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	args := m.Called(ctx, phone)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) Insert(ctx context.Context, ident *domain.Identity) error {
	return m.Called(ctx, ident).Error(0)
}
func (m *mockStore) Update(ctx context.Context, ident *domain.Identity) error {
	return m.Called(ctx, ident).Error(0)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) StartVerification(ctx context.Context, destination string, channel domain.Channel) error {
	return m.Called(ctx, destination, channel).Error(0)
}
func (m *mockProvider) CheckVerification(ctx context.Context, destination, code string) (domain.VerificationStatus, error) {
	args := m.Called(ctx, destination, code)
	return args.Get(0).(domain.VerificationStatus), args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(identityID, phone string) (string, error) {
	args := m.Called(identityID, phone)
	return args.String(0), args.Error(1)
}

// --- builder ---

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(store *mockStore, provider *mockProvider, signer *mockSigner) Service {
	deps := ServiceDeps{
		Store:    store,
		Provider: provider,
		Config:   Config{CountryCode: "+91", Channel: domain.ChannelSMS},
		Now:      func() time.Time { return fixedNow },
	}
	if signer != nil {
		deps.Signer = signer
	}
	return NewService(deps)
}

func strPtr(s string) *string { return &s }

// --- CheckEmail ---

func TestCheckEmail_Valid(t *testing.T) {
	svc := newService(nil, nil, nil)
	msg, err := svc.CheckEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, MsgEmailAccepted, msg)
}

func TestCheckEmail_RejectsMalformed(t *testing.T) {
	svc := newService(nil, nil, nil)
	for _, email := range []string{"", "plain", "a@b", "@b.com", "a@.com", "a b@c.com", "a@b c.com", "a@@b.com"} {
		_, err := svc.CheckEmail(context.Background(), email)
		assert.Truef(t, errors.Is(err, domain.ErrBadRequest), "email %q should be rejected", email)
	}
}

// --- SubmitPhone ---

func TestSubmitPhone_Valid(t *testing.T) {
	svc := newService(nil, nil, nil)
	msg, err := svc.SubmitPhone(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, MsgPhoneAccepted, msg)
}

func TestSubmitPhone_RejectsNotTenDigits(t *testing.T) {
	svc := newService(nil, nil, nil)
	for _, phone := range []string{"", "12345", "98765432100", "987654321a", "+919876543", " 987654321", "98765-4321"} {
		_, err := svc.SubmitPhone(context.Background(), phone)
		assert.Truef(t, errors.Is(err, domain.ErrBadRequest), "phone %q should be rejected", phone)
	}
}

// --- SendOTP ---

func TestSendOTP_PrefixesCountryCode(t *testing.T) {
	p := &mockProvider{}
	p.On("StartVerification", mock.Anything, "+919876543210", domain.ChannelSMS).Return(nil)

	svc := newService(nil, p, nil)
	msg, err := svc.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, MsgOTPSent, msg)
	p.AssertExpectations(t)
}

func TestSendOTP_InvalidPhone_NoProviderCall(t *testing.T) {
	p := &mockProvider{}
	svc := newService(nil, p, nil)

	_, err := svc.SendOTP(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	p.AssertNotCalled(t, "StartVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendOTP_ProviderFailure_IsGeneric(t *testing.T) {
	p := &mockProvider{}
	p.On("StartVerification", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("twilio: 20003 authenticate"))

	svc := newService(nil, p, nil)
	_, err := svc.SendOTP(context.Background(), "9876543210")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProvider))
	assert.NotContains(t, err.Error(), "20003")
}

// --- VerifyOTP ---

func TestVerifyOTP_MissingFields_NoProviderCall(t *testing.T) {
	p := &mockProvider{}
	svc := newService(nil, p, nil)
	cases := []VerifyRequest{
		{PhoneNumber: "9876543210", OTP: "123456"},
		{PhoneNumber: "9876543210", Email: "a@b.com"},
		{OTP: "123456", Email: "a@b.com"},
		{PhoneNumber: "12345", OTP: "123456", Email: "a@b.com"},
		{PhoneNumber: "9876543210", OTP: "123456", Email: "not-an-email"},
	}
	for _, req := range cases {
		_, err := svc.VerifyOTP(context.Background(), req)
		assert.True(t, errors.Is(err, domain.ErrBadRequest), "%+v", req)
	}
	p.AssertNotCalled(t, "CheckVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_NotApproved_NeverTouchesStore(t *testing.T) {
	for _, status := range []domain.VerificationStatus{
		domain.StatusPending, domain.StatusCanceled, domain.StatusExpired, domain.StatusMaxAttemptsReached, "",
	} {
		store := &mockStore{}
		p := &mockProvider{}
		p.On("CheckVerification", mock.Anything, "+919876543210", "123456").Return(status, nil)

		svc := newService(store, p, nil)
		_, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "123456", Email: "a@b.com"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidCode), "status %q", status)
		store.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	}
}

func TestVerifyOTP_ProviderError_IsInvalidCode(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.VerificationStatus(""), errors.New("upstream timeout"))

	svc := newService(store, p, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "123456", Email: "a@b.com"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	store.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything)
}

func TestVerifyOTP_Approved_CreatesIdentity(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	p.On("CheckVerification", mock.Anything, "+919876543210", "123456").Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(nil, domain.ErrNotFound)
	store.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Identity")).Return(nil).Once()

	svc := newService(store, p, nil)
	res, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "123456", Email: "a@b.com"})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, "a@b.com", res.Identity.EmailValue())
	assert.Equal(t, "9876543210", res.Identity.PhoneValue())
	assert.True(t, res.Identity.Verified)
	assert.NotEmpty(t, res.Identity.IdentityID)
	assert.Equal(t, fixedNow, res.Identity.CreatedAt)
	assert.Empty(t, res.Token)
	store.AssertNumberOfCalls(t, "Insert", 1)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestVerifyOTP_Approved_NormalizesEmail(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(nil, domain.ErrNotFound)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)

	svc := newService(store, p, nil)
	res, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "123456", Email: " A@B.Com "})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", res.Identity.EmailValue())
}

func TestVerifyOTP_Approved_ExistingPhone_UpdatesEmailWithoutDuplicate(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	existing := &domain.Identity{
		IdentityID:  "01HX",
		Email:       strPtr("a@b.com"),
		PhoneNumber: strPtr("9876543210"),
		Verified:    false,
		Version:     3,
	}
	p.On("CheckVerification", mock.Anything, "+919876543210", "654321").Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(existing, nil)
	store.On("Update", mock.Anything, mock.MatchedBy(func(i *domain.Identity) bool {
		return i.IdentityID == "01HX" && i.EmailValue() == "c@d.com" && i.Verified && i.Version == 3
	})).Return(nil)

	svc := newService(store, p, nil)
	res, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "654321", Email: "c@d.com"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "c@d.com", res.Identity.EmailValue())
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestVerifyOTP_Approved_ExistingPhone_SameEmail(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	existing := &domain.Identity{IdentityID: "01HX", Email: strPtr("a@b.com"), PhoneNumber: strPtr("9876543210")}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(existing, nil)
	store.On("Update", mock.Anything, existing).Return(nil)

	svc := newService(store, p, nil)
	res, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.True(t, res.Identity.Verified)
	assert.Equal(t, "a@b.com", res.Identity.EmailValue())
}

func TestVerifyOTP_PersistenceConflict_Surfaces(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(nil, domain.ErrNotFound)
	store.On("Insert", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	svc := newService(store, p, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "1", Email: "taken@b.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.False(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestVerifyOTP_StoreLookupFailure_Surfaces(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(nil, errors.New("connection refused"))

	svc := newService(store, p, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "1", Email: "a@b.com"})
	require.Error(t, err)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestVerifyOTP_SignsTokenWhenConfigured(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	signer := &mockSigner{}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(nil, domain.ErrNotFound)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", mock.AnythingOfType("string"), "9876543210").Return("jwt-token", nil)

	svc := newService(store, p, signer)
	res, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", res.Token)
}

func TestVerifyOTP_SignFailure_StillReturnsIdentity(t *testing.T) {
	store := &mockStore{}
	p := &mockProvider{}
	signer := &mockSigner{}
	p.On("CheckVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.StatusApproved, nil)
	store.On("FindByPhone", mock.Anything, "9876543210").Return(nil, domain.ErrNotFound)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", mock.Anything, mock.Anything).Return("", errors.New("no key"))

	svc := newService(store, p, signer)
	res, err := svc.VerifyOTP(context.Background(), VerifyRequest{PhoneNumber: "9876543210", OTP: "1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.NotNil(t, res.Identity)
	assert.Empty(t, res.Token)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "******3210", maskPhone("9876543210"))
	assert.Equal(t, "****", maskPhone("12"))
}
